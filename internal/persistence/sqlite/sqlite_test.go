package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/program-explorer/internal/persistence"
	"github.com/example/program-explorer/internal/persistence/sqlite/migration"
	"github.com/example/program-explorer/internal/testfixtures"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "explorer.db")
	store, err := Open(context.Background(), migration.DefaultSQLiteConfig(dsn), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStore_RecordStoreBehaviour(t *testing.T) {
	testfixtures.ExerciseRecordStore(t, func(t *testing.T) persistence.RecordStore {
		return newTestStore(t)
	})
}

func TestStore_RecordMetadata(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	clock := testfixtures.NewClock(time.Time{})
	store.now = clock.NowFunc()

	if err := store.Put(ctx, "conference-bookmarks", []byte(`{}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	record, err := store.Record(ctx, "conference-bookmarks")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !record.UpdatedAt.Equal(testfixtures.ReferenceTime()) {
		t.Fatalf("expected updated_at %v, got %v", testfixtures.ReferenceTime(), record.UpdatedAt)
	}

	if _, err := store.Record(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected persistence.ErrNotFound, got %v", err)
	}
}

func TestStore_ReopenKeepsDataAndSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "explorer.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := Open(ctx, migration.DefaultSQLiteConfig(dsn), logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := first.Put(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := Open(ctx, migration.DefaultSQLiteConfig(dsn), logger)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `[1]` {
		t.Fatalf("expected persisted payload, got %s", got)
	}
}

func TestErrorMapper(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper()
	if mapper.MapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if err := mapper.MapError(fmt.Errorf("wrapped: %w", errors.New("database is locked (5) (SQLITE_BUSY)"))); !errors.Is(err, errDatabaseLocked) {
		t.Fatalf("expected lock contention to be recognised, got %v", err)
	}
	other := errors.New("syntax error")
	if err := mapper.MapError(other); err != other {
		t.Fatalf("expected unrelated errors to pass through, got %v", err)
	}
}

func TestRetryHelper(t *testing.T) {
	t.Parallel()

	helper := NewRetryHelper(RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2})

	t.Run("retries lock contention", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := helper.WithRetry(context.Background(), func() error {
			attempts++
			if attempts < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		if err != nil || attempts != 3 {
			t.Fatalf("expected success on third attempt, got err=%v attempts=%d", err, attempts)
		}
	})

	t.Run("does not retry other failures", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := helper.WithRetry(context.Background(), func() error {
			attempts++
			return errors.New("constraint failed")
		})
		if err == nil || attempts != 1 {
			t.Fatalf("expected a single failed attempt, got err=%v attempts=%d", err, attempts)
		}
	})
}
