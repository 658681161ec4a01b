// Package logging carries a request or command scoped slog.Logger through
// context.Context.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// Scoped picks the context logger, then fallback, then slog.Default, and tags
// it with the component kind ("service", "handler"), its name and the
// operation being performed.
func Scoped(ctx context.Context, fallback *slog.Logger, kind, name, operation string, attrs ...any) *slog.Logger {
	logger := FromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, kind, name)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
