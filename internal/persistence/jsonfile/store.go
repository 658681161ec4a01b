// Package jsonfile stores records in a single JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/example/program-explorer/internal/persistence"
)

const (
	tmpSuffix       = ".tmp"
	filePermissions = 0o600
)

// ErrInvalidPayload is returned by Put for payloads that are not JSON.
var ErrInvalidPayload = errors.New("jsonfile: payload is not valid JSON")

// payloads are kept as strings so Get returns exactly the bytes given to Put
type fileRecord struct {
	Payload   string    `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps every record in one file. Writes go to a temporary file that
// is renamed over the original, so readers never see a partial document.
type Store struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

var _ persistence.RecordStore = (*Store)(nil)

// New returns a store backed by path. The file is created on first write.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create directory: %w", err)
	}
	return &Store{path: path, now: time.Now}, nil
}

// Get returns the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := persistence.ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	record, ok := records[key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return []byte(record.Payload), nil
}

// Put replaces the payload stored under key.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	if err := persistence.ValidateKey(key); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil && !errors.Is(err, persistence.ErrCorrupt) {
		return err
	}
	if records == nil {
		records = make(map[string]fileRecord)
	}

	records[key] = fileRecord{Payload: string(payload), UpdatedAt: s.now().UTC()}

	return s.writeLocked(records)
}

func (s *Store) readLocked() (map[string]fileRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]fileRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read %s: %w", s.path, err)
	}

	records := make(map[string]fileRecord)
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", persistence.ErrCorrupt, s.path, err)
	}
	return records, nil
}

func (s *Store) writeLocked(records map[string]fileRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode: %w", err)
	}

	tmpFile := s.path + tmpSuffix
	f, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return fmt.Errorf("jsonfile: open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("jsonfile: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("jsonfile: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("jsonfile: close temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.path); err != nil {
		return fmt.Errorf("jsonfile: replace %s: %w", s.path, err)
	}
	return nil
}
