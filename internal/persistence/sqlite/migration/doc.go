// Package migration applies versioned schema changes to SQLite databases.
//
// Migrations are read from an fs.FS, usually one embedded into the binary,
// and must follow the naming convention {version}_{description}.sql
// (e.g. "001_create_records.sql"). A leading "-- Description: ..." comment
// overrides the description derived from the file name.
//
// Applied versions are tracked in a schema_migrations table together with
// the checksum and execution time of each file. Every migration runs inside
// its own transaction; a failure rolls it back and stops the run.
//
// Example usage:
//
//	manager := NewManager(NewFSScanner(files, "migrations"), NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
