package server

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecraftpk/craftsite/internal/config"
	"github.com/codecraftpk/craftsite/internal/schedule"
)

func newTestLimiter(t *testing.T, cfg config.RateLimitConfig) (*RateLimiter, *schedule.Manual) {
	t.Helper()
	clock := schedule.NewManual(epoch)
	rl := NewRateLimiter(cfg, clock, nil)
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	rl, clock := newTestLimiter(t, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 6, Burst: 3})

	for i := 2; i >= 0; i-- {
		result := rl.Check("1.2.3.4")
		require.True(t, result.Allowed)
		assert.Equal(t, i, result.Remaining)
	}

	denied := rl.Check("1.2.3.4")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 10*time.Second, denied.RetryAfter)

	assert.True(t, rl.Allow("5.6.7.8"), "keys are independent")

	clock.Advance(4 * time.Second)
	denied = rl.Check("1.2.3.4")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 6*time.Second, denied.RetryAfter)

	clock.Advance(6 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_RefillCapsAtBurst(t *testing.T) {
	rl, clock := newTestLimiter(t, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 6, Burst: 3})

	assert.True(t, rl.Allow("a"))
	clock.Advance(time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl, _ := newTestLimiter(t, config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1, Burst: 1})

	for i := 0; i < 20; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.Zero(t, rl.BucketCount())
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl, _ := newTestLimiter(t, config.RateLimitConfig{Enabled: true})

	assert.Equal(t, 6, rl.config.RequestsPerMinute)
	assert.Equal(t, 3, rl.config.Burst)
}

func TestRateLimiter_CleanupRemovesIdleBuckets(t *testing.T) {
	rl, clock := newTestLimiter(t, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 6, Burst: 3})

	rl.Allow("idle")
	rl.Allow("busy")
	require.Equal(t, 2, rl.BucketCount())

	clock.Advance(8 * time.Minute)
	rl.Allow("busy")

	clock.Advance(7 * time.Minute)
	assert.Equal(t, 1, rl.BucketCount())
}

func TestRateLimiter_Stop(t *testing.T) {
	clock := schedule.NewManual(epoch)
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true}, clock, nil)
	require.Equal(t, 1, clock.Pending())

	rl.Stop()
	rl.Stop()
	assert.Zero(t, clock.Pending())
}

func TestSetRateLimitHeaders(t *testing.T) {
	rl, _ := newTestLimiter(t, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 6, Burst: 1})

	rec := httptest.NewRecorder()
	setRateLimitHeaders(rec, rl, rl.Check("a"))
	assert.Equal(t, "6", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	setRateLimitHeaders(rec, rl, rl.Check("a"))
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Equal(t, 10, retry)
}
