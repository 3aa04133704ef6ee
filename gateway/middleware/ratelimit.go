package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tokendrop/observability"
)

type RateLimit struct {
	RatePerSecond float64
	Burst         int
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and route key. Idle buckets
// are evicted once MaxClients is reached.
type RateLimiter struct {
	logger     *slog.Logger
	limits     map[string]RateLimit
	maxClients int
	idleAfter  time.Duration
	mu         sync.Mutex
	visitors   map[string]*rateEntry
	clockNow   func() time.Time
}

func NewRateLimiter(limits map[string]RateLimit, maxClients int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxClients <= 0 {
		maxClients = 10000
	}
	return &RateLimiter{
		logger:     logger,
		limits:     limits,
		maxClients: maxClients,
		idleAfter:  5 * time.Minute,
		visitors:   make(map[string]*rateEntry),
		clockNow:   time.Now,
	}
}

func (r *RateLimiter) Middleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			limit, ok := r.limits[key]
			if !ok {
				next.ServeHTTP(w, req)
				return
			}
			identifier := clientID(req)
			if !r.allow(key+"|"+identifier, limit) {
				observability.HTTP().RecordThrottle(key, "rate_limit")
				r.logger.Debug("request throttled", "route", key, "client", identifier, "requestId", RequestID(req.Context()))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *RateLimiter) allow(id string, cfg RateLimit) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clockNow()
	entry, ok := r.visitors[id]
	if !ok {
		if len(r.visitors) >= r.maxClients {
			r.evictIdle(now)
		}
		perSecond := cfg.RatePerSecond
		if perSecond <= 0 {
			perSecond = 1
		}
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		entry = &rateEntry{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
		r.visitors[id] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// evictIdle drops buckets unused for idleAfter, or every bucket when none
// are idle. Callers hold r.mu.
func (r *RateLimiter) evictIdle(now time.Time) {
	for id, entry := range r.visitors {
		if now.Sub(entry.lastSeen) >= r.idleAfter {
			delete(r.visitors, id)
		}
	}
	if len(r.visitors) >= r.maxClients {
		r.visitors = make(map[string]*rateEntry)
	}
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		if parsed := net.ParseIP(strings.TrimSpace(first)); parsed != nil {
			return parsed.String()
		}
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
