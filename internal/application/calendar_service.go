package application

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/calendar"
	"github.com/example/program-explorer/internal/filter"
	"github.com/example/program-explorer/internal/program"
	"github.com/example/program-explorer/internal/view"
)

// CalendarService lays sessions out on the calendar grid and exports them.
type CalendarService struct {
	dataset DatasetSource
	state   StateReader
	options calendar.Options
	now     func() time.Time
	logger  *slog.Logger
}

// NewCalendarService constructs a calendar service with the provided dependencies.
func NewCalendarService(dataset DatasetSource, state StateReader, options calendar.Options, now func() time.Time) *CalendarService {
	return NewCalendarServiceWithLogger(dataset, state, options, now, nil)
}

// NewCalendarServiceWithLogger constructs a calendar service with a specified logger.
func NewCalendarServiceWithLogger(dataset DatasetSource, state StateReader, options calendar.Options, now func() time.Time, logger *slog.Logger) *CalendarService {
	if now == nil {
		now = time.Now
	}
	if options.Location == nil {
		options.Location = time.UTC
	}
	return &CalendarService{dataset: dataset, state: state, options: options, now: now, logger: defaultLogger(logger)}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

// Layout filters the active sessions by query and places them on the grid.
func (s *CalendarService) Layout(ctx context.Context, query CalendarQuery) (grid calendar.Grid, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Layout", "day", query.Day, "room", query.Room, "bookmarks_only", query.BookmarksOnly)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to lay out calendar", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "calendar laid out", "events", len(grid.Events), "truncated", grid.Truncated)
	}()

	spec := query.Filters
	if vErr := validateTimeRange(spec.TimeFrom, spec.TimeTo); vErr.HasErrors() {
		err = vErr
		return
	}
	if day := strings.TrimSpace(query.Day); day != "" {
		spec.Days = []string{day}
	}
	if room := strings.TrimSpace(query.Room); room != "" {
		spec.Rooms = []string{room}
	}
	spec.BookmarkedOnly = spec.BookmarkedOnly || query.BookmarksOnly

	var data *program.Dataset
	data, err = loadDataset(ctx, s.dataset)
	if err != nil {
		return
	}

	var sessions []view.ActiveSession
	sessions, err = filterSessions(data, s.snapshot(), spec, s.options.Location, notHidden(query.Hidden))
	if err != nil {
		return
	}

	grid = calendar.Layout(sessions, s.options)
	return
}

// ExportICS renders sessions as an iCalendar file. Without ids every session
// of the dataset is exported, ignoring rejections and filters.
func (s *CalendarService) ExportICS(ctx context.Context, ids []string) (export FileExport, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ExportICS", "requested", len(ids))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to export calendar", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "calendar exported", "file", export.FileName)
	}()

	var data *program.Dataset
	data, err = loadDataset(ctx, s.dataset)
	if err != nil {
		return
	}

	sessions := data.Sessions
	if len(ids) > 0 {
		sessions = make([]program.Session, 0, len(ids))
		var missing []string
		for _, id := range ids {
			session, ok := data.Session(id)
			if !ok {
				missing = append(missing, id)
				continue
			}
			sessions = append(sessions, session)
		}
		if len(missing) > 0 {
			vErr := &ValidationError{}
			vErr.add("ids", "unknown session ids: "+strings.Join(missing, ", "))
			err = vErr
			return
		}
	}

	now := s.now()
	var buf bytes.Buffer
	if err = calendar.WriteICS(&buf, sessions, now); err != nil {
		return
	}
	export = FileExport{
		FileName:    calendar.ICSFileName(now),
		ContentType: "text/calendar; charset=utf-8",
		Data:        buf.Bytes(),
	}
	return
}

func (s *CalendarService) snapshot() bookmarks.State {
	if s.state == nil {
		return bookmarks.State{}
	}
	return s.state.Snapshot()
}

func notHidden(ids []string) filter.Predicate[view.ActiveSession] {
	if len(ids) == 0 {
		return nil
	}
	hidden := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		hidden[id] = struct{}{}
	}
	return func(session view.ActiveSession) bool {
		_, ok := hidden[session.Session.ID]
		return !ok
	}
}
