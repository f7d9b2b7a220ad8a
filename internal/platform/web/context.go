package web

import (
	"context"
	"log/slog"
)

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stores the request ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the ID stored by RequestIDInjector, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestLogger tags logger with the request ID carried by ctx.
func RequestLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	return logger.With("request_id", RequestID(ctx))
}
