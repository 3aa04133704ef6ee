package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokendrop/gateway/middleware"
	"tokendrop/native/distribution"
)

// Engine is the subset of the distribution engine served over HTTP.
type Engine interface {
	Claim(now int64, caller, receiver string, amount *uint256.Int) (*distribution.ClaimResult, error)
	QueryRewards(now int64, addr string) (*distribution.Rewards, error)
	QueryClaimed(addr, startAfter string, limit int) ([]distribution.ClaimedEntry, error)
	QueryCampaign() (*distribution.Campaign, error)
}

type Config struct {
	Engine        Engine
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	Logger        *slog.Logger
	// Now supplies the timestamp a request is evaluated at. Defaults to the
	// wall clock.
	Now func() time.Time
}

// ClaimRateLimitKey names the limiter bucket applied to claim submissions.
const ClaimRateLimitKey = "claim"

func New(cfg Config) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	obs := cfg.Observability
	if obs == nil {
		obs = middleware.NewObservability(middleware.ObservabilityConfig{}, cfg.Logger)
	}
	api := &distributionRoutes{engine: cfg.Engine, now: cfg.Now, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestIDs)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(sr chi.Router) {
		sr.With(obs.Middleware("campaign")).Get("/campaign", api.campaign)
		sr.With(obs.Middleware("rewards")).Get("/rewards/{address}", api.rewards)
		sr.With(obs.Middleware("claimed")).Get("/claimed", api.claimed)
		claim := sr.With(obs.Middleware("claim"))
		if cfg.RateLimiter != nil {
			claim = claim.With(cfg.RateLimiter.Middleware(ClaimRateLimitKey))
		}
		claim.Post("/claim", api.claim)
	})
	return r
}
