package util

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type requestIDContextKey string

const (
	// RequestIDHeader carries the correlation id on outgoing API calls.
	RequestIDHeader = "X-Request-Id"
	requestIDCtxKey = requestIDContextKey("request_id")
)

// NewID returns a random request id.
func NewID() string {
	return uuid.NewString()
}

// WithRequestID returns a context carrying id (generated when empty) and a
// child logger tagged with "request_id".
func WithRequestID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewID()
	}
	ctx = context.WithValue(ctx, requestIDCtxKey, id)
	logger := LoggerFromContext(ctx, nil).With("request_id", id)
	return ContextWithLogger(ctx, logger)
}

// RequestIDFromContext returns the request id in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDCtxKey).(string)
	return id
}

