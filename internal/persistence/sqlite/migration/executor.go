package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteExecutor implements the Executor interface for SQLite databases
type SQLiteExecutor struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteExecutor creates a new SQLite migration executor
func NewSQLiteExecutor(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db, now: time.Now}
}

// ExecuteMigration runs a single migration within a transaction
func (e *SQLiteExecutor) ExecuteMigration(ctx context.Context, migration Migration) (err error) {
	statements := parseSQL(migration.SQL)
	if len(statements) == 0 {
		return NewMigrationError(migration.Version, migration.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements found in migration", ErrInvalidMigrationFile))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return NewDatabaseError(migration.Version, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			err = NewDatabaseError(migration.Version, fmt.Sprintf("execute statement %d", i+1), execErr)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = NewDatabaseError(migration.Version, "commit transaction", err)
		return err
	}

	return nil
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist
func (e *SQLiteExecutor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)
	`

	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewDatabaseError("", "create schema_migrations table", err)
	}
	return nil
}

// RecordMigration records a successful migration in the version tracking table
func (e *SQLiteExecutor) RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error {
	const insertSQL = `
		INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
		VALUES (?, ?, ?, ?)
	`

	appliedAt := e.now().UTC().Format(time.RFC3339)
	if _, err := e.db.ExecContext(ctx, insertSQL, migration.Version, appliedAt, migration.Checksum, executionTime.Milliseconds()); err != nil {
		return NewDatabaseError(migration.Version, "record migration", err)
	}
	return nil
}

// GetAppliedVersions returns all applied migration versions with timestamps
func (e *SQLiteExecutor) GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	const querySQL = `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY CAST(version AS INTEGER) ASC
	`

	rows, err := e.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, NewDatabaseError("", "get applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			version, appliedAtStr, checksum string
			executionTimeMs                 int64
		)
		if err := rows.Scan(&version, &appliedAtStr, &executionTimeMs, &checksum); err != nil {
			return nil, NewDatabaseError("", "scan applied migration", err)
		}

		appliedAt, parseErr := time.Parse(time.RFC3339, appliedAtStr)
		if parseErr != nil {
			return nil, NewDatabaseError(version, "parse applied_at", parseErr)
		}

		applied = append(applied, AppliedMigration{
			Version:       version,
			AppliedAt:     appliedAt,
			ExecutionTime: time.Duration(executionTimeMs) * time.Millisecond,
			Checksum:      checksum,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError("", "iterate applied migrations", err)
	}

	return applied, nil
}

// parseSQL splits SQL content into individual statements and drops comment lines
func parseSQL(content string) []string {
	var statements []string

	for _, stmt := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "--") {
				lines = append(lines, line)
			}
		}
		if clean := strings.TrimSpace(strings.Join(lines, "\n")); clean != "" {
			statements = append(statements, clean)
		}
	}

	return statements
}
