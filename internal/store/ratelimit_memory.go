package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/qr-tracker/internal/ratelimit"
)

const rateLimitSweepInterval = time.Minute

type rateWindow struct {
	count   int64
	resetAt time.Time
}

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// Counters are process-local and lost on restart, so it is only correct for
// single-instance deployments.
type RateLimitMemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	now       func() time.Time
	lastSweep time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return NewRateLimitMemoryStoreWithClock(time.Now)
}

// NewRateLimitMemoryStoreWithClock creates an in-memory store reading time from now.
func NewRateLimitMemoryStoreWithClock(now func() time.Time) *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows:   make(map[string]*rateWindow),
		now:       now,
		lastSweep: now(),
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (ratelimit.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		s.windows[key] = w
	}

	w.count++

	return ratelimit.Window{Count: w.count, ResetAt: w.resetAt}, nil
}

// sweep drops elapsed windows so idle keys do not accumulate.
func (s *RateLimitMemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < rateLimitSweepInterval {
		return
	}

	for key, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, key)
		}
	}

	s.lastSweep = now
}

// Len returns the number of tracked windows.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}
