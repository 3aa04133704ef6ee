package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DistributionMetrics tracks claim settlement for the distribution engine.
type DistributionMetrics struct {
	claims        *prometheus.CounterVec
	failures      *prometheus.CounterVec
	claimedTotal  prometheus.Gauge
	poolBalance   *prometheus.GaugeVec
	dustSettled   prometheus.Counter
	slotDraws     *prometheus.CounterVec
	adminRequests *prometheus.CounterVec
}

var (
	distributionOnce     sync.Once
	distributionRegistry *DistributionMetrics
)

// Distribution returns the lazily-registered distribution collectors.
func Distribution() *DistributionMetrics {
	distributionOnce.Do(func() {
		distributionRegistry = &DistributionMetrics{
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tokendrop",
				Subsystem: "distribution",
				Name:      "claims_total",
				Help:      "Count of claim attempts segmented by outcome.",
			}, []string{"outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tokendrop",
				Subsystem: "distribution",
				Name:      "failures_total",
				Help:      "Count of rejected operations segmented by operation and error kind.",
			}, []string{"operation", "kind"}),
			claimedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "tokendrop",
				Subsystem: "distribution",
				Name:      "claimed_amount",
				Help:      "Cumulative amount claimed from the campaign in base units.",
			}),
			poolBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "tokendrop",
				Subsystem: "distribution",
				Name:      "pool_balance",
				Help:      "Spendable reward pool balance per asset in base units.",
			}, []string{"asset"}),
			dustSettled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tokendrop",
				Subsystem: "distribution",
				Name:      "dust_settled_total",
				Help:      "Rounding remainder released to claimants once all slots ended.",
			}),
			slotDraws: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tokendrop",
				Subsystem: "distribution",
				Name:      "slot_draws_total",
				Help:      "Number of claims that drew from each slot kind.",
			}, []string{"kind"}),
			adminRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tokendrop",
				Subsystem: "distribution",
				Name:      "admin_operations_total",
				Help:      "Count of successful administrative operations.",
			}, []string{"operation"}),
		}
		prometheus.MustRegister(
			distributionRegistry.claims,
			distributionRegistry.failures,
			distributionRegistry.claimedTotal,
			distributionRegistry.poolBalance,
			distributionRegistry.dustSettled,
			distributionRegistry.slotDraws,
			distributionRegistry.adminRequests,
		)
	})
	return distributionRegistry
}

// ObserveClaim records a successful claim.
func (m *DistributionMetrics) ObserveClaim(claimed *big.Int, dust *big.Int) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues("success").Inc()
	if claimed != nil {
		m.claimedTotal.Set(toFloat(claimed))
	}
	if dust != nil && dust.Sign() > 0 {
		m.dustSettled.Add(toFloat(dust))
	}
}

// ObserveFailure records a rejected operation.
func (m *DistributionMetrics) ObserveFailure(operation, kind string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	if kind == "" {
		kind = "unknown"
	}
	if operation == "claim" {
		m.claims.WithLabelValues("error").Inc()
	}
	m.failures.WithLabelValues(operation, kind).Inc()
}

// ObserveSlotDraw counts a claim drawing from a slot of the given kind.
func (m *DistributionMetrics) ObserveSlotDraw(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.slotDraws.WithLabelValues(kind).Inc()
}

// SetPoolBalance publishes the current reward pool balance.
func (m *DistributionMetrics) SetPoolBalance(asset string, balance *big.Int) {
	if m == nil || balance == nil {
		return
	}
	if asset == "" {
		asset = "unknown"
	}
	m.poolBalance.WithLabelValues(asset).Set(toFloat(balance))
}

// ObserveAdmin records a successful administrative operation.
func (m *DistributionMetrics) ObserveAdmin(operation string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	m.adminRequests.WithLabelValues(operation).Inc()
}

func toFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
