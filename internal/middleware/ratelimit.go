package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gomoku/backend/internal/cache"
)

// RateLimiter implements a token bucket algorithm
type RateLimiter struct {
	rate       float64
	bucketSize float64
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate float64, bucketSize float64) *RateLimiter {
	return newRateLimiter(rate, bucketSize, time.Now)
}

func newRateLimiter(rate, bucketSize float64, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		rate:       rate,
		bucketSize: bucketSize,
		tokens:     bucketSize,
		lastRefill: now(),
		now:        now,
	}
}

// refill adds tokens based on elapsed time
func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens = min(rl.bucketSize, rl.tokens+(elapsed*rl.rate))
	rl.lastRefill = now
}

// Allow checks if a request should be allowed
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// ClientLimiter keeps one bucket per client address. Idle buckets expire.
type ClientLimiter struct {
	rate    float64
	burst   float64
	buckets *cache.Cache[*RateLimiter]
}

func NewClientLimiter(rate float64, burst int, idle time.Duration) *ClientLimiter {
	return &ClientLimiter{
		rate:    rate,
		burst:   float64(burst),
		buckets: cache.NewCache[*RateLimiter](idle, idle),
	}
}

func (cl *ClientLimiter) Allow(client string) bool {
	rl, _ := cl.buckets.GetOrCreate(client, func() (*RateLimiter, error) {
		return NewRateLimiter(cl.rate, cl.burst), nil
	})
	return rl.Allow()
}

func (cl *ClientLimiter) Close() {
	cl.buckets.Close()
}

// RateLimitMiddleware rejects clients that exhaust their bucket with 429.
func RateLimitMiddleware(limiter *ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
