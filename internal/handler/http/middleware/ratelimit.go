package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
	"golang.org/x/time/rate"
)

// userLimiter is one caller's token bucket and when it was last used.
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter limits requests per authenticated user.
type RateLimiter struct {
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*userLimiter
	now      func() time.Time

	stopCh chan struct{}
	once   sync.Once
}

// NewRateLimiter allows perMinute requests per user per minute with a burst of
// the same size. perMinute <= 0 disables limiting. Idle entries are dropped
// in the background.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		limit:           rate.Limit(float64(perMinute) / 60.0),
		burst:           perMinute,
		cleanupInterval: 5 * time.Minute,
		limiters:        make(map[string]*userLimiter),
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}
	if perMinute > 0 {
		go rl.cleanupLoop()
	}
	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// Middleware must run after AuthRequired.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.burst <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		caller, ok := CallerFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "Authentication required")
			return
		}

		if !rl.limiterFor(caller.UserID).Allow() {
			slog.Warn("rate limit exceeded", slog.String("user_id", caller.UserID))
			retryAfter := int(math.Ceil(1.0 / float64(rl.limit)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.TooManyRequests(w, "Too many requests, please retry later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LimiterCount returns how many users currently have a bucket.
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiterFor(userID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ul, ok := rl.limiters[userID]; ok {
		ul.lastAccess = rl.now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[userID] = &userLimiter{limiter: limiter, lastAccess: rl.now()}
	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup drops buckets idle for twice the cleanup interval.
func (rl *RateLimiter) cleanup() {
	ttl := rl.cleanupInterval * 2
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for userID, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.limiters, userID)
		}
	}
}
