package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestScoped(t *testing.T) {
	t.Parallel()

	var fallbackBuf, requestBuf bytes.Buffer
	fallback := slog.New(slog.NewTextHandler(&fallbackBuf, nil))
	request := slog.New(slog.NewTextHandler(&requestBuf, nil)).With("request_id", "req-1")

	Scoped(context.Background(), fallback, "service", "ProgramService", "ListSessions", "count", 3).Info("done")
	if out := fallbackBuf.String(); !strings.Contains(out, "service=ProgramService") || !strings.Contains(out, "operation=ListSessions") || !strings.Contains(out, "count=3") {
		t.Fatalf("expected fallback logger with scope attributes, got %s", out)
	}

	ctx := ContextWithLogger(context.Background(), request)
	Scoped(ctx, fallback, "handler", "CalendarHandler", "").Info("done")
	out := requestBuf.String()
	if !strings.Contains(out, "request_id=req-1") || !strings.Contains(out, "handler=CalendarHandler") {
		t.Fatalf("expected the context logger to win, got %s", out)
	}
	if strings.Contains(out, "operation=") {
		t.Fatalf("expected no operation attribute when empty, got %s", out)
	}
}

func TestContextWithLoggerIgnoresNil(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatalf("expected the same context when logger is nil")
	}
	if FromContext(ctx) != nil {
		t.Fatalf("expected no logger on a bare context")
	}
}
