package subAuth

import (
	"context"

	"github.com/MrEthical07/subAuth/audit"
)

type clientIPContextKey struct{}
type userAgentContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for per-IP sign-in throttling and audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	ctx = context.WithValue(ctx, clientIPContextKey{}, ip)
	return audit.WithRequestInfo(ctx, ip, userAgentFromContext(ctx))
}

// WithUserAgent attaches the HTTP User-Agent string to ctx for audit entries.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	ctx = context.WithValue(ctx, userAgentContextKey{}, userAgent)
	return audit.WithRequestInfo(ctx, clientIPFromContext(ctx), userAgent)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}
