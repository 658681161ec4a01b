package migration

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig holds SQLite-specific database configuration
type SQLiteConfig struct {
	// DSN is the database file path or connection string
	DSN string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	// MaxOpenConns sets the maximum number of open connections. PRAGMAs are
	// applied once after opening, so values above one only make sense when
	// they are also carried by the DSN.
	MaxOpenConns int

	// ConnMaxLifetime sets the maximum lifetime of connections
	ConnMaxLifetime time.Duration
}

// ConnectionManager opens SQLite connections with the configured settings
type ConnectionManager struct {
	config SQLiteConfig
}

// NewConnectionManager creates a new SQLite connection manager
func NewConnectionManager(config SQLiteConfig) *ConnectionManager {
	return &ConnectionManager{config: config}
}

// GetConnection returns a configured SQLite database connection
func (cm *ConnectionManager) GetConnection() (*sql.DB, error) {
	if err := cm.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if err := cm.ensureDirectory(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cm.config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cm.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cm.config.MaxOpenConns)
		db.SetMaxIdleConns(cm.config.MaxOpenConns)
	}
	if cm.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	}

	if err := cm.ConfigureDatabase(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase applies SQLite-specific settings to an existing connection
func (cm *ConnectionManager) ConfigureDatabase(db *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cm.config.BusyTimeout.Milliseconds()),
	}
	if cm.config.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+cm.config.JournalMode)
	}
	if cm.config.Synchronous != "" {
		pragmas = append(pragmas, "PRAGMA synchronous = "+cm.config.Synchronous)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// ensureDirectory creates the parent directory of a file backed database
func (cm *ConnectionManager) ensureDirectory() error {
	dsn := cm.config.DSN
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// ValidateConfig validates the SQLite configuration
func (cm *ConnectionManager) ValidateConfig() error {
	if strings.TrimSpace(cm.config.DSN) == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if cm.config.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	validJournalModes := map[string]bool{
		"DELETE":   true,
		"TRUNCATE": true,
		"PERSIST":  true,
		"MEMORY":   true,
		"WAL":      true,
		"OFF":      true,
	}
	if cm.config.JournalMode != "" && !validJournalModes[cm.config.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", cm.config.JournalMode)
	}

	validSyncModes := map[string]bool{
		"OFF":    true,
		"NORMAL": true,
		"FULL":   true,
		"EXTRA":  true,
	}
	if cm.config.Synchronous != "" && !validSyncModes[cm.config.Synchronous] {
		return fmt.Errorf("invalid synchronous mode: %s", cm.config.Synchronous)
	}

	if cm.config.MaxOpenConns < 0 {
		return fmt.Errorf("MaxOpenConns cannot be negative")
	}
	if cm.config.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}

	return nil
}

// DefaultSQLiteConfig returns the configuration used for the bookmark record store
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		DSN:          databasePath,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
		Synchronous:  "NORMAL",
		MaxOpenConns: 1,
	}
}

// InMemoryTestSQLiteConfig returns a SQLite configuration optimized for in-memory testing
func InMemoryTestSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		DSN:          ":memory:",
		BusyTimeout:  time.Second,
		JournalMode:  "MEMORY",
		Synchronous:  "OFF",
		MaxOpenConns: 1,
	}
}
