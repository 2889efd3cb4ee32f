// Package requestcontext carries per-request metadata through context so
// services can enrich logs and audit entries without importing transport
// types.
package requestcontext

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	clientIPKey
	userAgentKey
	methodKey
	pathKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID or "" when none was set.
func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithClientMetadata records the caller's network address and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func ClientIP(ctx context.Context) string {
	return stringValue(ctx, clientIPKey)
}

func UserAgent(ctx context.Context) string {
	return stringValue(ctx, userAgentKey)
}

// WithRequestLine records the method and path of the request being served.
func WithRequestLine(ctx context.Context, method, path string) context.Context {
	ctx = context.WithValue(ctx, methodKey, method)
	return context.WithValue(ctx, pathKey, path)
}

func Method(ctx context.Context) string {
	return stringValue(ctx, methodKey)
}

func Path(ctx context.Context) string {
	return stringValue(ctx, pathKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
