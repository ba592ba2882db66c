package middleware

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qr-tracker/internal/handlers"
)

// RequestMeta is a middleware that adds client IP, user-agent, referrer and arrival time to the request context.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:   ClientIP(ctx),
			UserAgent:  ctx.Header("User-Agent"),
			Referrer:   ctx.Header("Referer"),
			ReceivedAt: time.Now().UTC(),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}
