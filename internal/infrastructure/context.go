package infrastructure

import "context"

type contextKey string

const traceIDKey contextKey = "trace_id"

// WithTraceID stores a trace id on the context. The request-id middleware
// sets this once per request; log records pick it up automatically.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace id on the context, or "".
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}
