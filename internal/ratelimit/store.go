package ratelimit

import (
	"context"
	"time"
)

// Window is the state of one rate limit key after a request was recorded.
type Window struct {
	Count   int64
	ResetAt time.Time
}

// Store defines the interface for rate limit data storage.
type Store interface {
	// Record counts a request against key and returns the current window.
	// A request arriving after ResetAt opens a new window with Count 1.
	Record(ctx context.Context, key string, window time.Duration) (Window, error)
}
