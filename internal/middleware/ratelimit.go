package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qr-tracker/internal/ratelimit"
	"go.uber.org/zap"
)

// Rate limit response headers.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// RejectionObserver is told about every rejected request.
type RejectionObserver interface {
	RateLimited(scope string)
}

// PolicyRateLimiter returns a Huma middleware that applies the policy to operations
// carrying a ratelimit.EndpointConfig in their metadata. Operations without one pass
// through untouched.
//
// Every configured scope is counted. The strictest result is reported through the
// X-RateLimit-* headers, and a rejected request gets 429 with Retry-After.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	observer RejectionObserver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return policyRateLimiter(api, limiter, observer, logger, time.Now)
}

func policyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	observer RejectionObserver,
	logger *zap.Logger,
	now func() time.Time,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg == nil || cfg.Disabled {
			next(ctx)

			return
		}

		path := getOperationPath(ctx)

		decision, err := limiter.Allow(ctx.Context(), identifiers(ctx, cfg))
		if err != nil {
			logger.Warn("rate limit check failed, allowing request", zap.String("path", path), zap.Error(err))
			next(ctx)

			return
		}

		if decision.Checked {
			setRateLimitHeaders(ctx, decision.Result)
		}

		if !decision.Allowed {
			handleRateLimitExceeded(api, ctx, decision, path, observer, logger, now())

			return
		}

		next(ctx)
	}
}

// identifiers maps each configured scope to the value it is counted against.
func identifiers(ctx huma.Context, cfg *ratelimit.EndpointConfig) map[ratelimit.Scope]string {
	ids := make(map[ratelimit.Scope]string, len(cfg.Scopes))

	for _, scope := range cfg.Scopes {
		switch scope {
		case ratelimit.ScopeShortCode:
			if cfg.PathParam != "" {
				ids[scope] = ctx.Param(cfg.PathParam)
			}
		case ratelimit.ScopeIP:
			ids[scope] = ClientIP(ctx)
		}
	}

	return ids
}

// getOperationPath extracts the path from the operation, if available.
func getOperationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

func setRateLimitHeaders(ctx huma.Context, res ratelimit.Result) {
	ctx.SetHeader(HeaderLimit, strconv.FormatInt(res.Limit, 10))
	ctx.SetHeader(HeaderRemaining, strconv.FormatInt(res.Remaining, 10))
	ctx.SetHeader(HeaderReset, strconv.FormatInt(res.ResetTime.Unix(), 10))
}

// RetryAfter returns the whole seconds until reset, never less than one.
func RetryAfter(reset, now time.Time) int64 {
	secs := int64(math.Ceil(reset.Sub(now).Seconds()))

	return max(secs, 1)
}

// handleRateLimitExceeded logs and responds to a rate limit exceeded condition.
func handleRateLimitExceeded(
	api huma.API,
	ctx huma.Context,
	decision ratelimit.Decision,
	path string,
	observer RejectionObserver,
	logger *zap.Logger,
	now time.Time,
) {
	res := decision.Result

	logger.Warn("rate limit exceeded",
		zap.String("path", path),
		zap.String("method", ctx.Method()),
		zap.String("scope", string(decision.Scope)),
		zap.Int64("count", res.Count),
		zap.Int64("max", res.Limit),
		zap.Time("reset", res.ResetTime),
		zap.String("client_ip", ClientIP(ctx)),
	)

	if observer != nil {
		observer.RateLimited(string(decision.Scope))
	}

	ctx.SetHeader(HeaderRetryAfter, strconv.FormatInt(RetryAfter(res.ResetTime, now), 10))

	msg := fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests", decision.Scope, res.Count, res.Limit)
	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)
}
