package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// FallbackClientIP is used when no client address can be determined.
const FallbackClientIP = "127.0.0.1"

// proxyHeaders are consulted in order after X-Forwarded-For.
var proxyHeaders = []string{"X-Real-IP", "CF-Connecting-IP", "True-Client-IP"}

// ClientIP extracts the client address, considering proxies. The first entry
// of X-Forwarded-For is authoritative.
func ClientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	for _, header := range proxyHeaders {
		if ip := strings.TrimSpace(ctx.Header(header)); ip != "" {
			return ip
		}
	}

	addr := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	if addr == "" {
		return FallbackClientIP
	}

	return addr
}
