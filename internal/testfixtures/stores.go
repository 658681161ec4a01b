package testfixtures

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/program-explorer/internal/persistence"
)

// StoreFactory returns a fresh, empty record store for one subtest.
type StoreFactory func(t *testing.T) persistence.RecordStore

// ExerciseRecordStore runs the behaviour every persistence.RecordStore
// implementation must share.
func ExerciseRecordStore(t *testing.T, newStore StoreFactory) {
	t.Helper()

	t.Run("missing key reports not found", func(t *testing.T) {
		store := newStore(t)
		if _, err := store.Get(context.Background(), "absent"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected persistence.ErrNotFound, got %v", err)
		}
	})

	t.Run("put then get round trips and overwrites", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		if err := store.Put(ctx, "conference-bookmarks", []byte(`{"v":1}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Put(ctx, "conference-bookmarks", []byte(`{"v":2}`)); err != nil {
			t.Fatalf("second Put failed: %v", err)
		}
		if err := store.Put(ctx, "other", []byte(`[]`)); err != nil {
			t.Fatalf("Put for other key failed: %v", err)
		}

		got, err := store.Get(ctx, "conference-bookmarks")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"v":2}` {
			t.Fatalf("expected latest payload, got %s", got)
		}
	})

	t.Run("empty keys are rejected", func(t *testing.T) {
		store := newStore(t)
		if err := store.Put(context.Background(), " ", []byte(`{}`)); !errors.Is(err, persistence.ErrInvalidKey) {
			t.Fatalf("expected persistence.ErrInvalidKey, got %v", err)
		}
		if _, err := store.Get(context.Background(), ""); !errors.Is(err, persistence.ErrInvalidKey) {
			t.Fatalf("expected persistence.ErrInvalidKey, got %v", err)
		}
	})

	t.Run("concurrent writers leave a complete payload", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		payloads := []string{`{"writer":"a"}`, `{"writer":"b"}`, `{"writer":"c"}`, `{"writer":"d"}`}
		var wg sync.WaitGroup
		for _, payload := range payloads {
			payload := payload
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := store.Put(ctx, "shared", []byte(payload)); err != nil {
					t.Errorf("concurrent Put failed: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, "shared")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		found := false
		for _, payload := range payloads {
			if string(got) == payload {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected one of the written payloads, got %s", got)
		}
	})
}

// FailingStore is a RecordStore whose operations return configured errors.
type FailingStore struct {
	persistence.RecordStore

	GetErr error
	PutErr error

	mu   sync.Mutex
	puts int
}

// NewFailingStore wraps an in-memory store.
func NewFailingStore() *FailingStore {
	return &FailingStore{RecordStore: persistence.NewMemoryStore()}
}

// Get returns GetErr when set.
func (s *FailingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	return s.RecordStore.Get(ctx, key)
}

// Put counts the attempt and returns PutErr when set.
func (s *FailingStore) Put(ctx context.Context, key string, payload []byte) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	return s.RecordStore.Put(ctx, key, payload)
}

// Puts reports how many writes were attempted.
func (s *FailingStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
