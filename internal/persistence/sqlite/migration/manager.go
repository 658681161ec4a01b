package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager orchestrates the migration process
type Manager struct {
	source   Source
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a Manager applying migrations from source through executor
func NewManager(source Source, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{source: source, executor: executor, logger: logger.With("component", "migration")}
}

// RunMigrations executes all pending migrations in sequential order
func (m *Manager) RunMigrations(ctx context.Context) error {
	startTime := time.Now()

	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "schema version checked",
		"current_version", status.CurrentVersion,
		"pending_count", len(status.Pending),
	)
	if len(status.Pending) == 0 {
		return nil
	}

	for i, migration := range status.Pending {
		migrationStart := time.Now()
		logger := m.logger.With(
			"version", migration.Version,
			"description", migration.Description,
			"position", fmt.Sprintf("%d/%d", i+1, len(status.Pending)),
		)

		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath,
				"execute migration", fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}

		executionTime := time.Since(migrationStart)
		if err := m.executor.RecordMigration(ctx, migration, executionTime); err != nil {
			return NewMigrationError(migration.Version, migration.FilePath,
				"record migration", err)
		}

		logger.InfoContext(ctx, "migration applied", "duration", executionTime)
	}

	m.logger.InfoContext(ctx, "migrations completed",
		"applied_count", len(status.Pending),
		"duration", time.Since(startTime),
	)
	return nil
}

// Status compares the source against schema_migrations. Versions recorded in
// the database but absent from the source are reported as ErrUnknownVersion.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	available, err := m.source.ScanMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	known := make(map[string]struct{}, len(available))
	for _, migration := range available {
		known[migration.Version] = struct{}{}
	}

	appliedSet := make(map[string]struct{}, len(applied))
	status := &Status{Applied: applied}
	for _, record := range applied {
		if _, ok := known[record.Version]; !ok {
			return nil, NewMigrationError(record.Version, "", "validate sequence", ErrUnknownVersion)
		}
		appliedSet[record.Version] = struct{}{}
		if versionNumber(record.Version) > versionNumber(status.CurrentVersion) {
			status.CurrentVersion = record.Version
		}
	}

	for _, migration := range available {
		if _, done := appliedSet[migration.Version]; !done {
			status.Pending = append(status.Pending, migration)
		}
	}

	return status, nil
}
