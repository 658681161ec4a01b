package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not found", err: fmt.Errorf("wrap: %w", ErrNotFound), want: "not_found"},
		{name: "dataset", err: fmt.Errorf("%w: boom", ErrDatasetUnavailable), want: "dataset_unavailable"},
		{name: "import", err: fmt.Errorf("%w: missing field", bookmarks.ErrInvalidImport), want: "invalid_import"},
		{name: "validation", err: &ValidationError{FieldErrors: map[string]string{"ids": "unknown"}}, want: "validation"},
		{name: "other", err: errors.New("disk full"), want: "unexpected"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestServiceLogger_PrefersContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.ContextWithLogger(context.Background(), ctxLogger.With("request_id", "req-1"))

	serviceLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), "ProgramService", "ListSpeakers").Info("done")

	out := buf.String()
	for _, want := range []string{"request_id=req-1", "service=ProgramService", "operation=ListSpeakers"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
