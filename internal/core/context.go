package core

import "context"

type contextKey string

const (
	ctxKeyClientIP  contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "user_agent"
)

// ContextWithClient records the requesting client on ctx. Validation runs
// started with that context include the values in their log lines.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	if ip != "" {
		ctx = context.WithValue(ctx, ctxKeyClientIP, ip)
	}
	if userAgent != "" {
		ctx = context.WithValue(ctx, ctxKeyUserAgent, userAgent)
	}
	return ctx
}

// ClientIPFromContext returns the client IP recorded by ContextWithClient.
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientIP).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext returns the user agent recorded by ContextWithClient.
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// clientLogArgs returns slog key/value pairs for the client on ctx.
func clientLogArgs(ctx context.Context) []any {
	var args []any
	if ip := ClientIPFromContext(ctx); ip != "" {
		args = append(args, "client_ip", ip)
	}
	if ua := UserAgentFromContext(ctx); ua != "" {
		args = append(args, "user_agent", ua)
	}
	return args
}
