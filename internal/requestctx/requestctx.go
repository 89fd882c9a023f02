// Package requestctx carries per-request metadata below the HTTP layer so
// services can log it without importing transport packages.
package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	clientIPKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func GetClientIP(ctx context.Context) string {
	value, _ := ctx.Value(clientIPKey).(string)
	return value
}

// LogAttrs returns slog key/value pairs for whatever metadata ctx holds.
func LogAttrs(ctx context.Context) []any {
	attrs := make([]any, 0, 4)
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, "requestId", id)
	}
	if ip := GetClientIP(ctx); ip != "" {
		attrs = append(attrs, "clientIp", ip)
	}
	return attrs
}
