package migration

import (
	"context"
	"time"
)

// Migration represents a versioned schema change and its SQL content
type Migration struct {
	Version     string // numeric version taken from the file name, e.g. "001"
	Description string // human readable description
	SQL         string // statements to execute
	FilePath    string // path inside the source file system
	Checksum    string // sha256 of the SQL content
}

// AppliedMigration represents a migration recorded in schema_migrations
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Source lists the migrations available to a Manager
type Source interface {
	// ScanMigrations returns every migration ordered by ascending version
	ScanMigrations() ([]Migration, error)
}

// Executor applies migrations against a database and tracks applied versions
type Executor interface {
	// ExecuteMigration runs a single migration within a transaction
	ExecuteMigration(ctx context.Context, migration Migration) error

	// InitializeVersionTable creates the schema_migrations table if it doesn't exist
	InitializeVersionTable(ctx context.Context) error

	// RecordMigration records a successful migration in the version tracking table
	RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error

	// GetAppliedVersions returns all applied migration versions in ascending order
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

// Status summarises the migration state of a database
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}
