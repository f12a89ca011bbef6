// Package ratelimit implements a fixed-window request counter. Windows reset
// at fixed boundaries rather than rolling with each request, so a burst
// straddling a boundary can admit up to twice the nominal rate. That is the
// accepted tradeoff for O(1) memory and lookup per key.
package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key within a fixed window. Implementations must make
// the increment atomic per key.
type Store interface {
	// Incr records one hit for key, starting a fresh window when none is
	// active, and returns the hit count and the window reset time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, reset time.Time, err error)
}

// Result reports the outcome of a single rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter returns the whole seconds until the window resets, rounded up.
func (r Result) RetryAfter(now time.Time) int {
	d := r.Reset.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// Limiter checks keys against a quota using the injected store.
type Limiter struct {
	store Store
}

// New constructs a Limiter over the given store.
func New(store Store) *Limiter {
	return &Limiter{store: store}
}

// Check records a hit for key and reports whether it fits within max hits per
// window. On a store error the request is admitted; a broken counter backend
// must not take the API down with it.
func (l *Limiter) Check(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	count, reset, err := l.store.Incr(ctx, key, window)
	if err != nil {
		return Result{Allowed: true, Limit: max, Remaining: max, Reset: time.Now().Add(window)}, err
	}
	remaining := max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(max),
		Limit:     max,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}
