package bookmarks

import (
	"context"
	"sync"
	"time"
)

// Machine owns the current State and is the only way to change it. Each
// mutation builds the next state on a copy and persists it before it
// becomes visible, so a failed write leaves Snapshot unchanged.
type Machine struct {
	adapter *Adapter

	mu    sync.Mutex
	state State
}

// NewMachine loads the persisted state through adapter.
func NewMachine(ctx context.Context, adapter *Adapter) (*Machine, error) {
	state, err := adapter.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Machine{adapter: adapter, state: state}, nil
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// ToggleBookmark flips the bookmark for id. Rejections are left alone.
func (m *Machine) ToggleBookmark(ctx context.Context, kind Kind, id string) (State, error) {
	return m.apply(ctx, func(next *State) {
		set := next.bookmarks(kind)
		if !set.remove(id) {
			set.add(id)
		}
	})
}

// Reject adds id to the rejections and drops any bookmark for it.
func (m *Machine) Reject(ctx context.Context, kind Kind, id string) (State, error) {
	return m.RejectAll(ctx, kind, []string{id})
}

// BookmarkAll bookmarks every id not already bookmarked.
func (m *Machine) BookmarkAll(ctx context.Context, kind Kind, ids []string) (State, error) {
	return m.apply(ctx, func(next *State) {
		set := next.bookmarks(kind)
		for _, id := range ids {
			set.add(id)
		}
	})
}

// RejectAll rejects every id with a single write.
func (m *Machine) RejectAll(ctx context.Context, kind Kind, ids []string) (State, error) {
	return m.apply(ctx, func(next *State) {
		bookmarks, rejections := next.bookmarks(kind), next.rejections(kind)
		for _, id := range ids {
			rejections.add(id)
			bookmarks.remove(id)
		}
	})
}

// Import validates payload and unions it into the current state.
func (m *Machine) Import(ctx context.Context, payload []byte) (State, error) {
	incoming, err := DecodeImport(payload)
	if err != nil {
		return State{}, err
	}
	return m.apply(ctx, func(next *State) {
		*next = next.Merge(incoming)
	})
}

// Export returns the current state as an indented JSON document and the file
// name to offer it under.
func (m *Machine) Export(now time.Time) ([]byte, string, error) {
	data, err := EncodeExport(m.Snapshot())
	if err != nil {
		return nil, "", err
	}
	return data, ExportFileName(now), nil
}

func (m *Machine) apply(ctx context.Context, mutate func(*State)) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state.Clone()
	mutate(&next)

	if err := m.adapter.Save(ctx, next); err != nil {
		return m.state.Clone(), err
	}
	m.state = next
	return next.Clone(), nil
}
