package persistence

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Record is one opaque payload stored under a key.
type Record struct {
	Key       string
	Payload   []byte
	UpdatedAt time.Time
}

// RecordStore is durable key/value storage for small JSON documents.
type RecordStore interface {
	// Get returns the payload stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the payload stored under key.
	Put(ctx context.Context, key string, payload []byte) error
}

// ValidateKey rejects empty keys.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

// MemoryStore keeps records in process memory. It is used by tests and when
// no durable storage is wanted.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

// Get returns a copy of the stored payload.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePayload(record.Payload), nil
}

// Put stores a copy of payload under key.
func (s *MemoryStore) Put(ctx context.Context, key string, payload []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = Record{Key: key, Payload: clonePayload(payload), UpdatedAt: s.now()}
	return nil
}

// Record returns the full record for key.
func (s *MemoryStore) Record(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	record.Payload = clonePayload(record.Payload)
	return record, true
}

func clonePayload(payload []byte) []byte {
	if payload == nil {
		return nil
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out
}
