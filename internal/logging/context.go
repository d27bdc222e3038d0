package logging

import "context"

// NullRequestID is logged when the caller supplied no request id.
const NullRequestID = "null"

type requestIDKey struct{}

// WithRequestID returns a context carrying the caller-supplied request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID extracts the request id stored by WithRequestID, or NullRequestID.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return NullRequestID
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return NullRequestID
}
