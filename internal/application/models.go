package application

import (
	"context"
	"time"

	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/filter"
	"github.com/example/program-explorer/internal/program"
	"github.com/example/program-explorer/internal/scheduler"
	"github.com/example/program-explorer/internal/view"
)

// DatasetSource yields the program dataset. program.Loader implements it.
type DatasetSource interface {
	Load(ctx context.Context) (*program.Dataset, error)
}

// StateReader exposes the current bookmark state.
type StateReader interface {
	Snapshot() bookmarks.State
}

// BookmarkMachine is the single mutation entry point for bookmark state.
// bookmarks.Machine implements it.
type BookmarkMachine interface {
	StateReader
	ToggleBookmark(ctx context.Context, kind bookmarks.Kind, id string) (bookmarks.State, error)
	Reject(ctx context.Context, kind bookmarks.Kind, id string) (bookmarks.State, error)
	BookmarkAll(ctx context.Context, kind bookmarks.Kind, ids []string) (bookmarks.State, error)
	RejectAll(ctx context.Context, kind bookmarks.Kind, ids []string) (bookmarks.State, error)
	Import(ctx context.Context, payload []byte) (bookmarks.State, error)
	Export(now time.Time) ([]byte, string, error)
}

// SpeakerDetail is one speaker with the sessions they present.
type SpeakerDetail struct {
	Speaker  view.ActiveSpeaker   `json:"speaker"`
	Sessions []view.ActiveSession `json:"sessions"`
}

// SessionDetail is one session with its display helpers.
type SessionDetail struct {
	Session           view.ActiveSession `json:"session"`
	Company           string             `json:"company"`
	Day               string             `json:"day"`
	TimeRange         string             `json:"timeRange"`
	GoogleCalendarURL string             `json:"googleCalendarUrl"`
}

// CalendarQuery selects the sessions laid out on the calendar grid.
type CalendarQuery struct {
	Filters       filter.SessionSpec
	Day           string
	Room          string
	BookmarksOnly bool
	// Hidden lists session ids removed from this view only.
	Hidden []string
}

// FileExport is a generated document offered for download.
type FileExport struct {
	FileName    string
	ContentType string
	Data        []byte
}

// PersonalSchedule is the personal view plus the overlapping pairs among the
// bookmarked sessions.
type PersonalSchedule struct {
	view.PersonalView
	Conflicts []scheduler.Conflict `json:"conflicts"`
}
