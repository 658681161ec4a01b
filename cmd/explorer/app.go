package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/example/program-explorer/internal/application"
	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/config"
	"github.com/example/program-explorer/internal/persistence"
	"github.com/example/program-explorer/internal/persistence/jsonfile"
	"github.com/example/program-explorer/internal/persistence/sqlite"
	"github.com/example/program-explorer/internal/persistence/sqlite/migration"
	"github.com/example/program-explorer/internal/program"
)

// app wires the services every command shares.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	store   persistence.RecordStore
	closers []io.Closer

	dataset   *program.Loader
	programs  *application.ProgramService
	bookmarks *application.BookmarkService
	calendar  *application.CalendarService
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newApp loads the configuration, opens the record store and builds the
// services. The dataset is loaded lazily on first use.
func newApp(ctx context.Context, logWriter io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, logWriter)

	a := &app{cfg: cfg, logger: logger}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	machine, err := bookmarks.NewMachine(ctx, bookmarks.NewAdapter(a.store, logger))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load bookmark state: %w", err)
	}

	a.dataset = program.NewLoader(program.LoaderConfig{
		Source:   cfg.DataSource,
		Timeout:  cfg.FetchTimeout,
		Location: cfg.Location,
	}, logger)

	a.programs = application.NewProgramServiceWithLogger(a.dataset, machine, cfg.Location, logger)
	a.bookmarks = application.NewBookmarkServiceWithLogger(machine, a.dataset, time.Now, logger)
	a.calendar = application.NewCalendarServiceWithLogger(a.dataset, machine, cfg.CalendarOptions(), time.Now, logger)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Storage {
	case config.StorageFile:
		store, err := jsonfile.New(a.cfg.StateFile)
		if err != nil {
			return fmt.Errorf("failed to open state file: %w", err)
		}
		a.store = store
	default:
		store, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(a.cfg.SQLiteDSN), a.logger)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store)
	}
	a.logger.Debug("record store opened", "storage", a.cfg.Storage)
	return nil
}

// Close releases the record store.
func (a *app) Close() {
	for _, closer := range a.closers {
		if err := closer.Close(); err != nil {
			a.logger.Error("failed to close storage", "error", err)
		}
	}
	a.closers = nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// describe spells out validation failures for the terminal.
func describe(err error) error {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || !vErr.HasErrors() {
		return err
	}
	fields := make([]string, 0, len(vErr.FieldErrors))
	for field := range vErr.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	details := make([]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, field+": "+vErr.FieldErrors[field])
	}
	return fmt.Errorf("%w: %s", err, strings.Join(details, "; "))
}
