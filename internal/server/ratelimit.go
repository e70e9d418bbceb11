package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/codecraftpk/craftsite/internal/config"
	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/live"
	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/schedule"
)

const (
	cleanupInterval = 5 * time.Minute
	bucketExpiry    = 10 * time.Minute
)

// RateLimiter implements token bucket rate limiting per client key. The same
// buckets guard form posts and live submit events.
type RateLimiter struct {
	buckets     map[string]*TokenBucket
	bucketMutex sync.RWMutex
	config      config.RateLimitConfig
	clock       schedule.Clock
	logger      logging.Logger
	cleaner     schedule.Handle
}

var _ live.Limiter = (*RateLimiter)(nil)

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	tokens     int
	capacity   int
	refillRate int // tokens per minute
	lastRefill time.Time
	lastAccess time.Time
	mutex      sync.Mutex
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetTime  time.Time
}

// NewRateLimiter creates a rate limiter. Expired buckets are swept on clock
// until Stop.
func NewRateLimiter(cfg config.RateLimitConfig, clock schedule.Clock, logger logging.Logger) *RateLimiter {
	if clock == nil {
		clock = schedule.Real()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 6
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}

	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  cfg,
		clock:   clock,
		logger:  logger.WithComponent("ratelimit"),
	}
	rl.cleaner = clock.Every(cleanupInterval, rl.performCleanup)
	return rl
}

// Check checks if a request is allowed for the given key (usually IP address)
func (rl *RateLimiter) Check(key string) RateLimitResult {
	if !rl.config.Enabled {
		return RateLimitResult{
			Allowed:   true,
			Remaining: rl.config.Burst,
		}
	}

	bucket := rl.getBucket(key)
	return bucket.consume(rl.clock.Now())
}

// Allow reports whether key may proceed, consuming a token if so.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.Check(key).Allowed
}

// getBucket gets or creates a token bucket for the given key
func (rl *RateLimiter) getBucket(key string) *TokenBucket {
	now := rl.clock.Now()

	rl.bucketMutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.bucketMutex.RUnlock()

	if exists {
		bucket.touch(now)
		return bucket
	}

	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := rl.buckets[key]; exists {
		bucket.touch(now)
		return bucket
	}

	bucket = &TokenBucket{
		tokens:     rl.config.Burst,
		capacity:   rl.config.Burst,
		refillRate: rl.config.RequestsPerMinute,
		lastRefill: now,
		lastAccess: now,
	}
	rl.buckets[key] = bucket
	return bucket
}

func (tb *TokenBucket) touch(now time.Time) {
	tb.mutex.Lock()
	tb.lastAccess = now
	tb.mutex.Unlock()
}

// consume attempts to consume a token from the bucket
func (tb *TokenBucket) consume(now time.Time) RateLimitResult {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill(now)

	if tb.tokens > 0 {
		tb.tokens--
		return RateLimitResult{
			Allowed:   true,
			Remaining: tb.tokens,
			ResetTime: now.Add(time.Minute),
		}
	}

	retryAfter := time.Minute/time.Duration(tb.refillRate) - now.Sub(tb.lastRefill)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return RateLimitResult{
		Allowed:    false,
		RetryAfter: retryAfter,
		ResetTime:  now.Add(retryAfter),
	}
}

// refill adds whole tokens earned since the last refill.
func (tb *TokenBucket) refill(now time.Time) {
	perToken := time.Minute / time.Duration(tb.refillRate)
	earned := int(now.Sub(tb.lastRefill) / perToken)
	if earned <= 0 {
		return
	}

	tb.tokens += earned
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	// Keep the partial interval so slow trickles still earn tokens.
	tb.lastRefill = tb.lastRefill.Add(time.Duration(earned) * perToken)
}

// performCleanup removes expired buckets
func (rl *RateLimiter) performCleanup() {
	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()

	now := rl.clock.Now()
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		expired := now.Sub(bucket.lastAccess) > bucketExpiry
		bucket.mutex.Unlock()
		if expired {
			delete(rl.buckets, key)
		}
	}
}

// Stop stops the cleanup task.
func (rl *RateLimiter) Stop() {
	schedule.Stop(rl.cleaner)
}

// BucketCount returns the number of tracked clients.
func (rl *RateLimiter) BucketCount() int {
	rl.bucketMutex.RLock()
	defer rl.bucketMutex.RUnlock()
	return len(rl.buckets)
}

// setRateLimitHeaders reports the outcome of a check to the client.
func setRateLimitHeaders(w http.ResponseWriter, limiter *RateLimiter, result RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.config.RequestsPerMinute))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
	if !result.Allowed {
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", result.RetryAfter.Seconds()))
	}
}

func (rl *RateLimiter) logRejected(r *http.Request, clientIP string) {
	rl.logger.Warn(r.Context(),
		errors.NewValidationError(errors.ErrCodeRateLimited, "rate limit exceeded"),
		"Rate limit exceeded",
		"client_ip", clientIP,
		"path", r.URL.Path,
		"method", r.Method)
}
