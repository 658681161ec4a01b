package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewConnectionManager(InMemoryTestSQLiteConfig()).GetConnection()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFSScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	t.Run("orders by numeric version and reads descriptions", func(t *testing.T) {
		t.Parallel()

		files := fstest.MapFS{
			"migrations/010_add_index.sql":      {Data: []byte("CREATE INDEX idx ON t(a);")},
			"migrations/002_create_table.sql":   {Data: []byte("-- Description: base table\nCREATE TABLE t (a TEXT);")},
			"migrations/README.md":              {Data: []byte("ignored")},
			"migrations/nested/003_skipped.sql": {Data: []byte("SELECT 1;")},
		}

		migrations, err := NewFSScanner(files, "migrations").ScanMigrations()
		if err != nil {
			t.Fatalf("ScanMigrations returned error: %v", err)
		}
		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}
		if migrations[0].Version != "002" || migrations[1].Version != "010" {
			t.Fatalf("unexpected order: %s, %s", migrations[0].Version, migrations[1].Version)
		}
		if migrations[0].Description != "base table" {
			t.Fatalf("expected description from comment, got %q", migrations[0].Description)
		}
		if migrations[1].Description != "add index" {
			t.Fatalf("expected description from file name, got %q", migrations[1].Description)
		}
		if len(migrations[0].Checksum) != 64 {
			t.Fatalf("expected sha256 checksum, got %q", migrations[0].Checksum)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()

		files := fstest.MapFS{
			"m/001_a.sql":  {Data: []byte("SELECT 1;")},
			"m/0001_b.sql": {Data: []byte("SELECT 2;")},
			"m/1_c.sql":    {Data: []byte("SELECT 3;")},
			"m/001_d.sql":  {Data: []byte("SELECT 4;")},
		}
		if _, err := NewFSScanner(files, "m").ScanMigrations(); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects malformed names and empty files", func(t *testing.T) {
		t.Parallel()

		badName := fstest.MapFS{"m/create.sql": {Data: []byte("SELECT 1;")}}
		if _, err := NewFSScanner(badName, "m").ScanMigrations(); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile for bad name, got %v", err)
		}

		empty := fstest.MapFS{"m/001_empty.sql": {Data: []byte("  \n")}}
		if _, err := NewFSScanner(empty, "m").ScanMigrations(); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile for empty file, got %v", err)
		}
	})
}

func TestParseSQL(t *testing.T) {
	t.Parallel()

	statements := parseSQL(`
		-- leading comment
		CREATE TABLE a (id TEXT);

		-- another
		INSERT INTO a (id) VALUES ('x');
		;
	`)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %#v", len(statements), statements)
	}
	if statements[0] != "CREATE TABLE a (id TEXT)" {
		t.Fatalf("unexpected first statement %q", statements[0])
	}
}

func TestManager_RunMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"migrations/001_create_notes.sql": {Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY, body TEXT NOT NULL);")},
		"migrations/002_seed_notes.sql":   {Data: []byte("INSERT INTO notes (id, body) VALUES ('n1', 'hello');")},
	}

	manager := NewManager(NewFSScanner(files, "migrations"), NewSQLiteExecutor(db), quietLogger())
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations returned error: %v", err)
	}

	var body string
	if err := db.QueryRowContext(ctx, "SELECT body FROM notes WHERE id = 'n1'").Scan(&body); err != nil {
		t.Fatalf("expected seeded row, got %v", err)
	}

	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("expected second run to be a no-op, got %v", err)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.CurrentVersion != "002" || len(status.Pending) != 0 || len(status.Applied) != 2 {
		t.Fatalf("unexpected status: %#v", status)
	}
}

func TestManager_FailedMigrationRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"migrations/001_partial.sql": {Data: []byte("CREATE TABLE half (id TEXT); INSERT INTO missing_table VALUES (1);")},
	}

	manager := NewManager(NewFSScanner(files, "migrations"), NewSQLiteExecutor(db), quietLogger())
	err := manager.RunMigrations(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'half'").Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected table creation to be rolled back, got %v", err)
	}

	applied, err := NewSQLiteExecutor(db).GetAppliedVersions(ctx)
	if err != nil {
		t.Fatalf("GetAppliedVersions returned error: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected no recorded versions, got %d", len(applied))
	}
}

func TestManager_UnknownAppliedVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	executor := NewSQLiteExecutor(db)
	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable returned error: %v", err)
	}
	if err := executor.RecordMigration(ctx, Migration{Version: "007"}, 0); err != nil {
		t.Fatalf("RecordMigration returned error: %v", err)
	}

	manager := NewManager(NewFSScanner(fstest.MapFS{"m/001_a.sql": {Data: []byte("SELECT 1;")}}, "m"), executor, quietLogger())
	if _, err := manager.Status(ctx); !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestConnectionManager_ValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config SQLiteConfig
		ok     bool
	}{
		{name: "defaults", config: DefaultSQLiteConfig("explorer.db"), ok: true},
		{name: "empty dsn", config: SQLiteConfig{}, ok: false},
		{name: "bad journal mode", config: SQLiteConfig{DSN: "x.db", JournalMode: "FAST"}, ok: false},
		{name: "bad synchronous", config: SQLiteConfig{DSN: "x.db", Synchronous: "SOMETIMES"}, ok: false},
		{name: "negative connections", config: SQLiteConfig{DSN: "x.db", MaxOpenConns: -1}, ok: false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := NewConnectionManager(tc.config).ValidateConfig()
			if tc.ok && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
