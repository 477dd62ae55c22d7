// Package ratelimit counts requests per client in fixed windows. Counts
// live either in Redis, so several server instances share one budget, or
// in process memory.
package ratelimit

import (
	"context"
	"time"
)

// Counter increments the hit count for key in the current window and
// reports when that window resets.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, reset time.Time, err error)
}

// Result describes one Allow decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter allows at most Max hits per key within Window.
type Limiter struct {
	counter Counter
	max     int
	window  time.Duration
	prefix  string
}

func NewLimiter(c Counter, max int, window time.Duration) *Limiter {
	return &Limiter{counter: c, max: max, window: window, prefix: "ratelimit:"}
}

// Allow records a hit for key. A counter error is returned together with
// an allowing Result so callers can fail open.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, reset, err := l.counter.Incr(ctx, l.prefix+key, l.window)
	if err != nil {
		return Result{Allowed: true, Limit: l.max, Remaining: l.max, Reset: time.Now().Add(l.window)}, err
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(l.max),
		Limit:     l.max,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}
