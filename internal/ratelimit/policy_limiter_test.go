package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/qr-tracker/internal/ratelimit"
	"github.com/serroba/qr-tracker/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicyLimiter(clock *fakeClock, policy *ratelimit.Policy) *ratelimit.PolicyLimiter {
	return ratelimit.NewPolicyLimiter(
		ratelimit.NewWindowLimiter(store.NewRateLimitMemoryStoreWithClock(clock.Now)),
		policy,
	)
}

func TestPolicyLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows when every scope is under its limit", func(t *testing.T) {
		limiter := newPolicyLimiter(newClock(), ratelimit.DefaultScanPolicy())

		d, err := limiter.Allow(ctx, map[ratelimit.Scope]string{
			ratelimit.ScopeShortCode: "abc12345",
			ratelimit.ScopeIP:        "203.0.113.7",
		})

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.True(t, d.Checked)
		assert.Equal(t, ratelimit.ScopeIP, d.Scope, "ip has fewer requests remaining")
		assert.Equal(t, int64(99), d.Result.Remaining)
	})

	t.Run("rejects when either scope is exceeded", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeShortCode, 2, time.Hour).
			AddLimit(ratelimit.ScopeIP, 10, time.Minute).
			Build()
		limiter := newPolicyLimiter(newClock(), policy)

		ids := func(ip string) map[ratelimit.Scope]string {
			return map[ratelimit.Scope]string{ratelimit.ScopeShortCode: "abc12345", ratelimit.ScopeIP: ip}
		}

		_, _ = limiter.Allow(ctx, ids("1.1.1.1"))
		_, _ = limiter.Allow(ctx, ids("2.2.2.2"))
		d, err := limiter.Allow(ctx, ids("3.3.3.3"))

		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ratelimit.ScopeShortCode, d.Scope)
		assert.True(t, d.Result.Limited)
	})

	t.Run("counts every scope even after one is exceeded", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeIP, 1, time.Minute).
			AddLimit(ratelimit.ScopeShortCode, 100, time.Hour).
			Build()
		limiter := newPolicyLimiter(newClock(), policy)
		ids := map[ratelimit.Scope]string{ratelimit.ScopeShortCode: "abc12345", ratelimit.ScopeIP: "1.1.1.1"}

		for range 3 {
			_, _ = limiter.Allow(ctx, ids)
		}

		d, err := limiter.Allow(ctx, map[ratelimit.Scope]string{ratelimit.ScopeShortCode: "abc12345"})

		require.NoError(t, err)
		assert.Equal(t, int64(4), d.Result.Count)
	})

	t.Run("skips empty identifiers and unconfigured scopes", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeIP, 1, time.Minute).Build()
		limiter := newPolicyLimiter(newClock(), policy)

		d, err := limiter.Allow(ctx, map[ratelimit.Scope]string{
			ratelimit.ScopeIP:        "",
			ratelimit.ScopeShortCode: "abc12345",
		})

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.False(t, d.Checked)
	})

	t.Run("checks several windows for one scope", func(t *testing.T) {
		clock := newClock()
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeIP, 2, time.Second).
			AddLimit(ratelimit.ScopeIP, 3, time.Hour).
			Build()
		limiter := newPolicyLimiter(clock, policy)
		ids := map[ratelimit.Scope]string{ratelimit.ScopeIP: "1.1.1.1"}

		for range 2 {
			d, _ := limiter.Allow(ctx, ids)
			require.True(t, d.Allowed)
		}

		clock.Advance(2 * time.Second)

		d, _ := limiter.Allow(ctx, ids)
		assert.True(t, d.Allowed)

		d, _ = limiter.Allow(ctx, ids)
		assert.False(t, d.Allowed, "hourly window exhausted")
		assert.Equal(t, int64(3), d.Result.Limit)
	})

	t.Run("propagates limiter errors", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(ratelimit.NewWindowLimiter(failingStore{}), ratelimit.DefaultScanPolicy())

		_, err := limiter.Allow(ctx, map[ratelimit.Scope]string{ratelimit.ScopeIP: "1.1.1.1"})

		assert.ErrorIs(t, err, errStoreDown)
	})

	t.Run("exposes the policy", func(t *testing.T) {
		policy := ratelimit.DefaultScanPolicy()

		assert.Same(t, policy, ratelimit.NewPolicyLimiter(nil, policy).Policy())
	})
}
