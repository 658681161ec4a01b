package http

import (
	"context"
	"log/slog"

	"github.com/example/program-explorer/internal/logging"
)

type contextKey string

const (
	entityIDContextKey  contextKey = "entity_id"
	requestIDContextKey contextKey = "request_id"
)

// ContextWithLogger returns a derived context carrying the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request scoped logger if one was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithEntityID injects the speaker or session identifier resolved from the request path.
func ContextWithEntityID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, entityIDContextKey, id)
}

// EntityIDFromContext extracts an identifier previously associated with the context.
func EntityIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(entityIDContextKey).(string)
	return id, ok
}

// ContextWithRequestID stores the request identifier.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the identifier assigned by RequestLogger.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
