// Package sqlite implements persistence.RecordStore on top of modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/program-explorer/internal/persistence"
	"github.com/example/program-explorer/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store keeps records in a single SQLite table
type Store struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

var _ persistence.RecordStore = (*Store)(nil)

// Open connects to the database described by config and applies the embedded
// migrations before returning
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	store := &Store{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}

	if err := store.Migrate(ctx, logger); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return store, nil
}

// Migrate applies pending schema migrations
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	manager := migration.NewManager(
		migration.NewFSScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connections
func (s *Store) Close() error {
	return s.pool.Close()
}

// Get returns the payload stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := persistence.ValidateKey(key); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.pool.DB().QueryRowContext(ctx, `SELECT payload FROM records WHERE key = ?`, key).Scan(&payload)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	return payload, nil
}

// Put inserts or replaces the payload stored under key
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	if err := persistence.ValidateKey(key); err != nil {
		return err
	}
	if payload == nil {
		payload = []byte{}
	}

	const upsert = `
		INSERT INTO records (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`

	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, upsert, key, payload, s.now().UTC().Format(time.RFC3339Nano))
			return err
		})
	})
}

// Record returns the payload together with its last update time
func (s *Store) Record(ctx context.Context, key string) (persistence.Record, error) {
	if err := persistence.ValidateKey(key); err != nil {
		return persistence.Record{}, err
	}

	var (
		record    = persistence.Record{Key: key}
		updatedAt string
	)
	err := s.pool.DB().QueryRowContext(ctx, `SELECT payload, updated_at FROM records WHERE key = ?`, key).Scan(&record.Payload, &updatedAt)
	if err != nil {
		return persistence.Record{}, s.mapper.MapError(err)
	}

	record.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return persistence.Record{}, fmt.Errorf("sqlite: parse updated_at for %s: %w", key, err)
	}
	return record, nil
}
