package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, base, "service", serviceName, operation, attrs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDatasetUnavailable):
		return "dataset_unavailable"
	case errors.Is(err, bookmarks.ErrInvalidImport):
		return "invalid_import"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
