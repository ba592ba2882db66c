package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result is the decision for a single rate limit check.
type Result struct {
	Limited   bool
	Limit     int64
	Count     int64
	Remaining int64
	ResetTime time.Time
}

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Check counts a request for identifier within scope and reports whether it exceeds limit.
	Check(ctx context.Context, scope Scope, identifier string, limit int64, window time.Duration) (Result, error)
}

// WindowLimiter implements fixed-window counting on top of a Store.
// Every check counts, including rejected ones.
type WindowLimiter struct {
	store Store
}

// NewWindowLimiter creates a new window rate limiter.
func NewWindowLimiter(store Store) *WindowLimiter {
	return &WindowLimiter{store: store}
}

func (l *WindowLimiter) Check(
	ctx context.Context, scope Scope, identifier string, limit int64, window time.Duration,
) (Result, error) {
	w, err := l.store.Record(ctx, buildKey(scope, identifier, window), window)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Limited:   w.Count > limit,
		Limit:     limit,
		Count:     w.Count,
		Remaining: max(0, limit-w.Count),
		ResetTime: w.ResetAt,
	}, nil
}

// buildKey combines scope, identifier and window so each limit is tracked independently.
func buildKey(scope Scope, identifier string, window time.Duration) string {
	return fmt.Sprintf("%s:%s:%d", scope, identifier, window.Milliseconds())
}
