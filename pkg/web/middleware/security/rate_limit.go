package security

import (
	"sync"
	"time"

	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client. Default: 100.
	RequestsPerSecond float64

	// Burst is the bucket size. Default: 2 * RequestsPerSecond.
	Burst int

	// KeyFunc identifies the client. Default: remote IP.
	KeyFunc func(ctx *web.FastRequestContext) string

	// SkipPaths are never limited (health checks, metrics scrapes).
	SkipPaths []string

	// IdleTTL drops clients not seen for this long. Default: 10m.
	IdleTTL time.Duration
}

// RateLimiter holds one token bucket per client.
type RateLimiter struct {
	cfg  RateLimitConfig
	skip map[string]struct{}
	now  func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter applies defaults to cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 100
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(2 * cfg.RequestsPerSecond)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(ctx *web.FastRequestContext) string {
			return ctx.RequestCtx.RemoteIP().String()
		}
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	return &RateLimiter{
		cfg:     cfg,
		skip:    skip,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow reports whether key may make a request now and spends a token if so.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	if now.Sub(rl.lastSweep) >= rl.cfg.IdleTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) >= rl.cfg.IdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware answers 429 once a client exceeds its rate.
func (rl *RateLimiter) Middleware() web.FastMiddleware {
	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			if _, ok := rl.skip[string(ctx.RequestCtx.Path())]; ok {
				return next(ctx)
			}
			if !rl.Allow(rl.cfg.KeyFunc(ctx)) {
				ctx.RequestCtx.Response.Header.Set(fasthttp.HeaderRetryAfter, "1")
				return ctx.ErrorJSON(fasthttp.StatusTooManyRequests, "too many requests")
			}
			return next(ctx)
		}
	}
}

// RateLimit is shorthand for NewRateLimiter(config).Middleware().
func RateLimit(config RateLimitConfig) web.FastMiddleware {
	return NewRateLimiter(config).Middleware()
}
