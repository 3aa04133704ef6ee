package distribution

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/holiman/uint256"

	"tokendrop/core/events"
	"tokendrop/core/types"
	"tokendrop/crypto"
	"tokendrop/observability/metrics"
)

type engineState interface {
	DistributionCampaignGet() (*Campaign, bool, error)
	DistributionAllocationGet(addr string) (*uint256.Int, bool, error)
	DistributionClaimsGet(addr string) (ClaimRecord, bool, error)
	DistributionClaimsIterate(startAfter string, fn func(addr string, record ClaimRecord) (bool, error)) error
	DistributionBlacklisted(addr string) (bool, error)
	DistributionPoolBalance(asset string) (*uint256.Int, error)
	DistributionCommit(cs *Changeset) error
}

// AddressValidator canonicalises an address or rejects it.
type AddressValidator func(addr string) (string, error)

// Engine settles claims against the campaign, allocation table and claim
// ledger held by the configured state. Operations are serialised; each one
// either commits all of its mutations or none.
type Engine struct {
	mu        sync.Mutex
	state     engineState
	emitter   events.Emitter
	logger    *slog.Logger
	telemetry *metrics.DistributionMetrics
	validate  AddressValidator
}

// NewEngine constructs a distribution engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		logger:    slog.Default(),
		telemetry: metrics.Distribution(),
		validate:  PrefixValidator(crypto.DefaultPrefix),
	}
}

// PrefixValidator accepts bech32 addresses carrying prefix.
func PrefixValidator(prefix crypto.AddressPrefix) AddressValidator {
	return func(addr string) (string, error) {
		return crypto.ValidateAddress(addr, prefix)
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger overrides the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// SetAddressValidator overrides the receiver address check.
func (e *Engine) SetAddressValidator(v AddressValidator) {
	if v == nil {
		v = PrefixValidator(crypto.DefaultPrefix)
	}
	e.validate = v
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) fail(operation string, err error) error {
	if err != nil {
		e.telemetry.ObserveFailure(operation, KindOf(err).String())
		e.logger.Debug("distribution operation rejected", "operation", operation, "kind", KindOf(err).String(), "error", err)
	}
	return err
}

func (e *Engine) validAddress(addr string) (string, error) {
	canonical, err := e.validate(addr)
	if err != nil {
		return "", newError(ErrInvalidAddress).withAddress(strings.TrimSpace(addr)).withDetail("%v", err)
	}
	return canonical, nil
}

func (e *Engine) loadCampaign() (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, newError(ErrNilState)
	}
	campaign, ok, err := e.state.DistributionCampaignGet()
	if err != nil {
		return nil, err
	}
	if !ok || campaign == nil {
		return nil, newError(ErrNoCampaign)
	}
	return campaign, nil
}

func (e *Engine) loadRecord(addr string) (ClaimRecord, error) {
	record, ok, err := e.state.DistributionClaimsGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return make(ClaimRecord), nil
	}
	return record, nil
}

// Claim settles a claim for receiver (or caller when receiver is empty) at
// time now. A nil amount claims everything currently available. The returned
// result names the amount to transfer to the receiver.
func (e *Engine) Claim(now int64, caller, receiver string, amount *uint256.Int) (*ClaimResult, error) {
	if e == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	result, cs, err := e.prepareClaim(now, caller, receiver, amount)
	if err != nil {
		return nil, e.fail("claim", err)
	}
	if err := e.state.DistributionCommit(cs); err != nil {
		return nil, e.fail("claim", err)
	}
	e.telemetry.ObserveClaim(cs.Campaign.Claimed.ToBig(), result.Dust.ToBig())
	e.telemetry.SetPoolBalance(result.Asset, cs.PoolBalances[result.Asset].ToBig())
	for _, draw := range result.Allocations {
		e.telemetry.ObserveSlotDraw(cs.Campaign.Slots[draw.Slot].Kind.String())
	}
	e.emit(ClaimedEvent(result, now))
	e.logger.Info("distribution claim settled",
		"receiver", result.Receiver,
		"amount", result.Amount.Dec(),
		"dust", result.Dust.Dec(),
		"slots", len(result.Allocations))
	return result, nil
}

// prepareClaim performs every check and computation of a claim and returns
// the changeset to commit. It never writes.
func (e *Engine) prepareClaim(now int64, caller, receiver string, requested *uint256.Int) (*ClaimResult, *Changeset, error) {
	campaign, err := e.loadCampaign()
	if err != nil {
		return nil, nil, err
	}
	if !campaign.HasStarted(now) {
		return nil, nil, newError(ErrCampaignNotStarted).withDetail("starts at %d, now %d", campaign.StartTime, now)
	}
	if campaign.IsClosed() {
		return nil, nil, newError(ErrCampaignClosed).withDetail("closed at %d", *campaign.ClosedAt)
	}
	target := caller
	if strings.TrimSpace(receiver) != "" {
		target = receiver
	}
	addr, err := e.validAddress(target)
	if err != nil {
		return nil, nil, err
	}
	blocked, err := e.state.DistributionBlacklisted(addr)
	if err != nil {
		return nil, nil, err
	}
	if blocked {
		return nil, nil, newError(ErrBlacklisted).withAddress(addr)
	}
	entitlement, ok, err := e.state.DistributionAllocationGet(addr)
	if err != nil {
		return nil, nil, err
	}
	if !ok || entitlement == nil {
		return nil, nil, newError(ErrNoAllocation).withAddress(addr)
	}
	record, err := e.loadRecord(addr)
	if err != nil {
		return nil, nil, err
	}

	maxClaimable, fresh, dust, err := computeMaxClaimable(campaign, now, entitlement, record)
	if err != nil {
		return nil, nil, err
	}
	actual := maxClaimable
	if requested != nil {
		if requested.IsZero() {
			return nil, nil, newError(ErrZeroAmount).withAddress(addr)
		}
		if requested.Cmp(maxClaimable) > 0 {
			return nil, nil, newError(ErrExceedsClaimable).withAddress(addr).withAmounts(requested, maxClaimable)
		}
		actual = requested
	}
	if actual.IsZero() {
		return nil, nil, newError(ErrNothingToClaim).withAddress(addr)
	}
	balance, err := e.state.DistributionPoolBalance(campaign.RewardAsset)
	if err != nil {
		return nil, nil, err
	}
	if balance.Cmp(actual) < 0 {
		return nil, nil, newError(ErrInsufficientBalance).withAmounts(actual, balance)
	}

	draws, unplaced := AllocateClaim(campaign.Slots, fresh, actual)
	if !unplaced.IsZero() {
		return nil, nil, newError(ErrInvariantViolation).withAddress(addr).
			withDetail("%s of the claim could not be attributed to any slot", unplaced.Dec())
	}
	updated := record.Clone()
	for _, draw := range draws {
		prev := updated[draw.Slot]
		cumulative, err := checkedAdd("ledger slot", prev.Amount, draw.Amount)
		if err != nil {
			return nil, nil, err
		}
		stamp := prev.LastClaimedAt
		if now > stamp {
			stamp = now
		}
		updated[draw.Slot] = SlotClaim{Amount: cumulative, LastClaimedAt: stamp}
	}

	next := campaign.Clone()
	next.Claimed, err = checkedAdd("campaign claimed", campaign.Claimed, actual)
	if err != nil {
		return nil, nil, err
	}

	total, err := updated.Total()
	if err != nil {
		return nil, nil, err
	}
	if total.Cmp(entitlement) > 0 {
		return nil, nil, newError(ErrInvariantViolation).withAddress(addr).withAmounts(total, entitlement).
			withDetail("ledger total exceeds entitlement")
	}

	// Dust is reported once, by the claim that takes everything available.
	released := new(uint256.Int)
	if actual.Cmp(maxClaimable) == 0 {
		released.Set(dust)
	}

	cs := newChangeset()
	cs.Campaign = next
	cs.Claims[addr] = updated
	cs.PoolBalances[campaign.RewardAsset] = new(uint256.Int).Sub(balance, actual)
	cs.Payouts = append(cs.Payouts, Payout{Address: addr, Asset: campaign.RewardAsset, Amount: new(uint256.Int).Set(actual)})

	result := &ClaimResult{
		Receiver:    addr,
		Asset:       campaign.RewardAsset,
		Amount:      new(uint256.Int).Set(actual),
		Dust:        released,
		Allocations: draws,
	}
	return result, cs, nil
}

// IsRetryable reports whether a failed claim may succeed later without any
// administrative action, e.g. because the campaign has not started yet or
// nothing has vested.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCampaignNotStarted) || errors.Is(err, ErrNothingToClaim) ||
		errors.Is(err, ErrExceedsClaimable)
}
