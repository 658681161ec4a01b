package http

import (
	"context"
	"log/slog"

	"github.com/example/program-explorer/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request logger installed by RequestLogger. Without
// one, the request id is still attached when the context carries it.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	if LoggerFromContext(ctx) == nil {
		if id := RequestIDFromContext(ctx); id != "" {
			attrs = append([]any{"request_id", id}, attrs...)
		}
	}
	return logging.Scoped(ctx, fallback, "handler", handlerName, operation, attrs...)
}
