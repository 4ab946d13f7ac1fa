package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, maxPerDay int, now time.Time) (*DispatchLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewDispatchLimiter(rdb, maxPerDay)
	limiter.now = func() time.Time { return now }
	return limiter, mr
}

func TestDispatchLimiterCountsUpToCap(t *testing.T) {
	now := time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)
	limiter, _ := newTestLimiter(t, 3, now)
	ctx := context.Background()

	remaining, err := limiter.Remaining(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Increment(ctx))
	}

	remaining, err = limiter.Remaining(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	err = limiter.Increment(ctx)
	assert.ErrorIs(t, err, ErrDailyCapReached)
}

func TestDispatchLimiterRemainingNeverNegative(t *testing.T) {
	now := time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)
	limiter, mr := newTestLimiter(t, 2, now)
	ctx := context.Background()

	require.NoError(t, mr.Set("dispatch:2025-06-16", "7"))

	remaining, err := limiter.Remaining(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestDispatchLimiterResetsByCalendarDay(t *testing.T) {
	day1 := time.Date(2025, 6, 16, 23, 0, 0, 0, time.UTC)
	limiter, _ := newTestLimiter(t, 5, day1)
	ctx := context.Background()

	require.NoError(t, limiter.Increment(ctx))
	require.NoError(t, limiter.Increment(ctx))

	used, err := limiter.Used(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, used)

	// Next calendar day: a fresh counter.
	limiter.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	used, err = limiter.Used(ctx)
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestDispatchLimiterSetsExpiry(t *testing.T) {
	now := time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)
	limiter, mr := newTestLimiter(t, 5, now)

	require.NoError(t, limiter.Increment(context.Background()))
	ttl := mr.TTL("dispatch:2025-06-16")
	assert.Greater(t, ttl, time.Duration(0))
}
