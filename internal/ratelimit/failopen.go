package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultCheckTimeout bounds a single check against an external store.
const DefaultCheckTimeout = 100 * time.Millisecond

// FailOpenLimiter decorates a Limiter so that store failures never reject traffic.
// When the wrapped limiter errors or exceeds the timeout the request is let through
// and a warning is logged.
type FailOpenLimiter struct {
	next    Limiter
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewFailOpenLimiter wraps next with a per-check timeout and fail-open behavior.
func NewFailOpenLimiter(next Limiter, timeout time.Duration, logger *zap.Logger) *FailOpenLimiter {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}

	return &FailOpenLimiter{
		next:    next,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

func (l *FailOpenLimiter) Check(
	ctx context.Context, scope Scope, identifier string, limit int64, window time.Duration,
) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := l.next.Check(ctx, scope, identifier, limit, window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing request",
			zap.String("scope", string(scope)),
			zap.Duration("timeout", l.timeout),
			zap.Error(err),
		)

		return Result{
			Limit:     limit,
			Remaining: limit,
			ResetTime: l.now().Add(window),
		}, nil
	}

	return res, nil
}
