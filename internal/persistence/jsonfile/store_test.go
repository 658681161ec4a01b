package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/program-explorer/internal/persistence"
	"github.com/example/program-explorer/internal/testfixtures"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state", "bookmarks.json")
	store, err := New(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store, path
}

func TestStore_RecordStoreBehaviour(t *testing.T) {
	testfixtures.ExerciseRecordStore(t, func(t *testing.T) persistence.RecordStore {
		store, _ := newTestStore(t)
		return store
	})
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	payload := []byte("{\n  \"speakerBookmarks\": [\"a\"]\n}")
	if err := store.Put(ctx, "conference-bookmarks", payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(path + tmpSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file to be renamed away, got %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	got, err := reopened.Get(ctx, "conference-bookmarks")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected byte-exact payload, got %q", got)
	}
}

func TestStore_RejectsNonJSONPayload(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Put(context.Background(), "k", []byte("not json")); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("failed to seed corrupt file: %v", err)
	}

	if _, err := store.Get(ctx, "k"); !errors.Is(err, persistence.ErrCorrupt) {
		t.Fatalf("expected persistence.ErrCorrupt, got %v", err)
	}

	if err := store.Put(ctx, "k", []byte(`{"fresh":true}`)); err != nil {
		t.Fatalf("expected Put to replace a corrupt file, got %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != `{"fresh":true}` {
		t.Fatalf("expected fresh payload after rewrite, got %q (%v)", got, err)
	}
}
