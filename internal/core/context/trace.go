package context

import (
	"context"
)

// Trace carries the correlation identifiers of a single request.
// The HTTP layer fills it from the incoming X-Request-ID and X-Trace-ID
// headers; background jobs run without one.
type Trace struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace attaches request correlation ids to ctx.
func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// GetTrace returns the request trace attached to ctx, if any.
func GetTrace(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// RequestID returns the request id, or "" outside a request.
func RequestID(ctx context.Context) string {
	t, _ := GetTrace(ctx)
	return t.RequestID
}
