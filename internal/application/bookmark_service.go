package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/program"
)

// BookmarkService validates curation requests against the dataset and
// forwards them to the bookmark state machine.
type BookmarkService struct {
	machine BookmarkMachine
	dataset DatasetSource
	now     func() time.Time
	logger  *slog.Logger
}

// NewBookmarkService constructs a bookmark service with the provided dependencies.
func NewBookmarkService(machine BookmarkMachine, dataset DatasetSource, now func() time.Time) *BookmarkService {
	return NewBookmarkServiceWithLogger(machine, dataset, now, nil)
}

// NewBookmarkServiceWithLogger constructs a bookmark service with a specified logger.
func NewBookmarkServiceWithLogger(machine BookmarkMachine, dataset DatasetSource, now func() time.Time, logger *slog.Logger) *BookmarkService {
	if now == nil {
		now = time.Now
	}
	return &BookmarkService{machine: machine, dataset: dataset, now: now, logger: defaultLogger(logger)}
}

func (s *BookmarkService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookmarkService", operation, attrs...)
}

// State returns the current bookmark state.
func (s *BookmarkService) State(ctx context.Context) (bookmarks.State, error) {
	if s == nil || s.machine == nil {
		return bookmarks.State{}, fmt.Errorf("bookmark machine not configured")
	}
	return s.machine.Snapshot(), nil
}

// Toggle flips the bookmark of one speaker or session.
func (s *BookmarkService) Toggle(ctx context.Context, kind bookmarks.Kind, id string) (bookmarks.State, error) {
	return s.single(ctx, "Toggle", kind, id, BookmarkMachine.ToggleBookmark)
}

// Reject rejects one speaker or session for good.
func (s *BookmarkService) Reject(ctx context.Context, kind bookmarks.Kind, id string) (bookmarks.State, error) {
	return s.single(ctx, "Reject", kind, id, BookmarkMachine.Reject)
}

// BookmarkAll bookmarks every listed id in one update.
func (s *BookmarkService) BookmarkAll(ctx context.Context, kind bookmarks.Kind, ids []string) (bookmarks.State, error) {
	return s.batch(ctx, "BookmarkAll", kind, ids, BookmarkMachine.BookmarkAll)
}

// RejectAll rejects every listed id in one update.
func (s *BookmarkService) RejectAll(ctx context.Context, kind bookmarks.Kind, ids []string) (bookmarks.State, error) {
	return s.batch(ctx, "RejectAll", kind, ids, BookmarkMachine.RejectAll)
}

func (s *BookmarkService) single(ctx context.Context, operation string, kind bookmarks.Kind, id string, apply func(BookmarkMachine, context.Context, bookmarks.Kind, string) (bookmarks.State, error)) (state bookmarks.State, err error) {
	if s == nil || s.machine == nil {
		err = fmt.Errorf("bookmark machine not configured")
		return
	}

	logger := s.loggerWith(ctx, operation, "kind", string(kind), "id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "bookmark update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "bookmark state updated")
	}()

	var data *program.Dataset
	data, err = loadDataset(ctx, s.dataset)
	if err != nil {
		return
	}
	if missing := missingIDs(data, kind, []string{id}); len(missing) > 0 {
		err = ErrNotFound
		return
	}

	state, err = apply(s.machine, ctx, kind, id)
	return
}

func (s *BookmarkService) batch(ctx context.Context, operation string, kind bookmarks.Kind, ids []string, apply func(BookmarkMachine, context.Context, bookmarks.Kind, []string) (bookmarks.State, error)) (state bookmarks.State, err error) {
	if s == nil || s.machine == nil {
		err = fmt.Errorf("bookmark machine not configured")
		return
	}

	logger := s.loggerWith(ctx, operation, "kind", string(kind), "count", len(ids))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "batch bookmark update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "bookmark state updated")
	}()

	var data *program.Dataset
	data, err = loadDataset(ctx, s.dataset)
	if err != nil {
		return
	}
	if missing := missingIDs(data, kind, ids); len(missing) > 0 {
		vErr := &ValidationError{}
		vErr.add("ids", fmt.Sprintf("unknown %s ids: %s", kind, strings.Join(missing, ", ")))
		err = vErr
		return
	}

	state, err = apply(s.machine, ctx, kind, ids)
	return
}

// Import merges an exported bookmark file into the current state.
func (s *BookmarkService) Import(ctx context.Context, payload []byte) (state bookmarks.State, err error) {
	if s == nil || s.machine == nil {
		err = fmt.Errorf("bookmark machine not configured")
		return
	}

	logger := s.loggerWith(ctx, "Import", "bytes", len(payload))
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "bookmark import rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "bookmarks imported")
	}()

	state, err = s.machine.Import(ctx, payload)
	return
}

// Export renders the current state as a downloadable file.
func (s *BookmarkService) Export(ctx context.Context) (FileExport, error) {
	if s == nil || s.machine == nil {
		return FileExport{}, fmt.Errorf("bookmark machine not configured")
	}
	data, name, err := s.machine.Export(s.now())
	if err != nil {
		s.loggerWith(ctx, "Export").ErrorContext(ctx, "failed to export bookmarks", "error", err, "error_kind", ErrorKind(err))
		return FileExport{}, err
	}
	return FileExport{FileName: name, ContentType: "application/json", Data: data}, nil
}

// missingIDs returns the ids of kind not present in data, in input order.
func missingIDs(data *program.Dataset, kind bookmarks.Kind, ids []string) []string {
	known := make(map[string]struct{})
	if kind == bookmarks.KindSession {
		for _, session := range data.Sessions {
			known[session.ID] = struct{}{}
		}
	} else {
		for _, speaker := range data.Speakers {
			known[speaker.ID] = struct{}{}
		}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
