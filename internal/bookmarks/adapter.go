package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/program-explorer/internal/persistence"
)

// StorageKey is the record key the bookmark state lives under.
const StorageKey = "conference-bookmarks"

// Adapter reads and writes State through a RecordStore.
type Adapter struct {
	store  persistence.RecordStore
	logger *slog.Logger
}

// NewAdapter wraps store. A nil logger discards output.
func NewAdapter(store persistence.RecordStore, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{store: store, logger: logger}
}

// Load returns the persisted state. A missing or unreadable record yields the
// empty state; only storage failures are returned.
func (a *Adapter) Load(ctx context.Context) (State, error) {
	payload, err := a.store.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return State{}, nil
	case errors.Is(err, persistence.ErrCorrupt):
		a.logger.WarnContext(ctx, "bookmark storage corrupt, starting empty", "error", err)
		return State{}, nil
	case err != nil:
		return State{}, fmt.Errorf("bookmarks: load: %w", err)
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		a.logger.WarnContext(ctx, "bookmark record malformed, starting empty", "error", err)
		return State{}, nil
	}
	return state, nil
}

// Save persists state.
func (a *Adapter) Save(ctx context.Context, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("bookmarks: encode: %w", err)
	}
	if err := a.store.Put(ctx, StorageKey, payload); err != nil {
		return fmt.Errorf("bookmarks: save: %w", err)
	}
	return nil
}
