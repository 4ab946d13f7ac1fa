package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dispatchKeyTTL = 48 * time.Hour

// DispatchLimiter enforces the daily outbound call cap. The counter
// lives in Redis so the cap holds across restarts and multiple
// scheduled runs within the same day.
type DispatchLimiter struct {
	rdb       *redis.Client
	maxPerDay int
	now       func() time.Time
}

func NewDispatchLimiter(rdb *redis.Client, maxPerDay int) *DispatchLimiter {
	return &DispatchLimiter{rdb: rdb, maxPerDay: maxPerDay, now: time.Now}
}

func (l *DispatchLimiter) key(t time.Time) string {
	return "dispatch:" + t.Format("2006-01-02")
}

// Used returns how many calls have been dispatched today.
func (l *DispatchLimiter) Used(ctx context.Context) (int, error) {
	count, err := l.rdb.Get(ctx, l.key(l.now())).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dispatch counter: %w", err)
	}
	return count, nil
}

// Remaining returns how many calls may still be dispatched today.
func (l *DispatchLimiter) Remaining(ctx context.Context) (int, error) {
	used, err := l.Used(ctx)
	if err != nil {
		return 0, err
	}
	remaining := l.maxPerDay - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Increment consumes one unit of today's budget. It returns
// ErrDailyCapReached when the cap was already exhausted; the
// increment is atomic so concurrent runs cannot overshoot.
func (l *DispatchLimiter) Increment(ctx context.Context) error {
	key := l.key(l.now())
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("bump dispatch counter: %w", err)
	}
	if count == 1 {
		l.rdb.Expire(ctx, key, dispatchKeyTTL)
	}
	if int(count) > l.maxPerDay {
		return ErrDailyCapReached
	}
	return nil
}
