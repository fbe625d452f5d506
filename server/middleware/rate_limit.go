package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the sustained number of requests per second per key.
	DefaultRate = 10
	// DefaultBurst is the number of requests allowed above the sustained rate.
	DefaultBurst = 20
)

const (
	// DefaultIdleTimeout is how long a key may go unseen before Sweep drops it.
	DefaultIdleTimeout = 10 * time.Minute
	// DefaultSweepInterval is how often RunSweeper sweeps.
	DefaultSweepInterval = time.Minute
)

// RateLimiter provides rate limiting functionality.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*keyLimiter
	every  time.Duration
	burst  int
	now    func() time.Time
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter allowing rps requests per second
// with the given burst for every key. Non-positive values use the defaults.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		limits: make(map[string]*keyLimiter),
		every:  time.Duration(float64(time.Second) / rps),
		burst:  burst,
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if kl, ok := rl.limits[key]; ok {
		kl.lastSeen = now
		return kl.limiter
	}

	kl := &keyLimiter{limiter: rate.NewLimiter(rate.Every(rl.every), rl.burst), lastSeen: now}
	rl.limits[key] = kl
	return kl.limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// Sweep drops keys unseen for at least idle whose bucket has refilled, so a
// returning caller gets the same burst it would have had. It returns the
// number of keys dropped.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	dropped := 0
	for key, kl := range rl.limits {
		if now.Sub(kl.lastSeen) < idle {
			continue
		}
		if kl.limiter.TokensAt(now) < float64(rl.burst) {
			continue
		}
		delete(rl.limits, key)
		dropped++
	}
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done.
// Non-positive arguments use the defaults.
func (rl *RateLimiter) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(idle); n > 0 {
				slog.Debug("rate limiter swept idle keys", slog.Int("dropped", n))
			}
		}
	}
}

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(c echo.Context) string

// ClientIP keys requests by the caller's address.
func ClientIP(c echo.Context) string {
	return c.RealIP()
}

// RateLimit rejects requests over the limit with 429 Too Many Requests.
func RateLimit(rl *RateLimiter, key KeyFunc) echo.MiddlewareFunc {
	if key == nil {
		key = ClientIP
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(key(c)) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"code":  "RATE_LIMIT_EXCEEDED",
					"error": "too many requests",
				})
			}
			return next(c)
		}
	}
}
