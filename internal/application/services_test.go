package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/calendar"
	"github.com/example/program-explorer/internal/filter"
	"github.com/example/program-explorer/internal/persistence"
	"github.com/example/program-explorer/internal/program"
	"github.com/example/program-explorer/internal/scheduler"
	"github.com/example/program-explorer/internal/testfixtures"
	"github.com/example/program-explorer/internal/view"
)

type datasetStub struct {
	data  *program.Dataset
	err   error
	loads int
}

func (d *datasetStub) Load(ctx context.Context) (*program.Dataset, error) {
	d.loads++
	if d.err != nil {
		return nil, d.err
	}
	return d.data, nil
}

type stateStub struct {
	state bookmarks.State
}

func (s stateStub) Snapshot() bookmarks.State {
	return s.state.Clone()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMachine(t *testing.T, store persistence.RecordStore) *bookmarks.Machine {
	t.Helper()
	machine, err := bookmarks.NewMachine(context.Background(), bookmarks.NewAdapter(store, discardLogger()))
	if err != nil {
		t.Fatalf("failed to create machine: %v", err)
	}
	return machine
}

func sessionIDs(sessions []view.ActiveSession) []string {
	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.Session.ID)
	}
	return ids
}

func TestProgramService_DatasetUnavailable(t *testing.T) {
	t.Parallel()

	svc := NewProgramServiceWithLogger(&datasetStub{err: program.ErrLoadFailed}, stateStub{}, time.UTC, discardLogger())

	if _, err := svc.ListSpeakers(context.Background(), filter.SpeakerSpec{}); !errors.Is(err, ErrDatasetUnavailable) {
		t.Fatalf("expected ErrDatasetUnavailable, got %v", err)
	}
	if _, err := svc.Rooms(context.Background()); !errors.Is(err, ErrDatasetUnavailable) {
		t.Fatalf("expected ErrDatasetUnavailable, got %v", err)
	}
	if _, err := NewProgramService(nil, nil, nil).Dataset(context.Background()); !errors.Is(err, ErrDatasetUnavailable) {
		t.Fatalf("expected ErrDatasetUnavailable without a source, got %v", err)
	}
}

func TestProgramService_ListSpeakers(t *testing.T) {
	t.Parallel()

	state := bookmarks.State{SpeakerRejections: bookmarks.NewIDSet("linus")}
	svc := NewProgramServiceWithLogger(&datasetStub{data: testfixtures.SampleDataset()}, stateStub{state: state}, time.UTC, discardLogger())

	t.Run("active view excludes rejected speakers", func(t *testing.T) {
		speakers, err := svc.ListSpeakers(context.Background(), filter.SpeakerSpec{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(speakers) != 2 {
			t.Fatalf("expected two active speakers, got %d", len(speakers))
		}
	})

	t.Run("rejected status reads the superset", func(t *testing.T) {
		speakers, err := svc.ListSpeakers(context.Background(), filter.SpeakerSpec{Statuses: []filter.BookmarkStatus{filter.StatusRejected}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(speakers) != 1 || speakers[0].Speaker.ID != "linus" {
			t.Fatalf("expected only linus, got %+v", speakers)
		}
	})
}

func TestProgramService_ListSessions(t *testing.T) {
	t.Parallel()

	data := testfixtures.SampleDataset()
	// reverse the dataset so ordering by start is observable
	reversed := *data
	reversed.Sessions = nil
	for i := len(data.Sessions) - 1; i >= 0; i-- {
		reversed.Sessions = append(reversed.Sessions, data.Sessions[i])
	}
	svc := NewProgramServiceWithLogger(&datasetStub{data: &reversed}, stateStub{}, time.UTC, discardLogger())

	sessions, err := svc.ListSessions(context.Background(), filter.SessionSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sessionIDs(sessions); !reflect.DeepEqual(got, []string{"keynote", "agents", "evals", "lunch", "day2"}) {
		t.Fatalf("expected start order, got %v", got)
	}

	_, err = svc.ListSessions(context.Background(), filter.SessionSpec{TimeFrom: "nine", TimeTo: "17:00"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["from"] == "" {
		t.Fatalf("expected validation error on from, got %v", err)
	}
}

func TestProgramService_GetSpeakerAndSession(t *testing.T) {
	t.Parallel()

	state := bookmarks.State{SpeakerBookmarks: bookmarks.NewIDSet("ada")}
	svc := NewProgramServiceWithLogger(&datasetStub{data: testfixtures.SampleDataset()}, stateStub{state: state}, time.UTC, discardLogger())
	ctx := context.Background()

	speaker, err := svc.GetSpeaker(ctx, "ada")
	if err != nil {
		t.Fatalf("GetSpeaker failed: %v", err)
	}
	if !speaker.Speaker.Annotations.Bookmarked {
		t.Fatalf("expected ada to be annotated as bookmarked")
	}
	if got := sessionIDs(speaker.Sessions); !reflect.DeepEqual(got, []string{"agents", "day2"}) {
		t.Fatalf("expected ada's sessions, got %v", got)
	}

	session, err := svc.GetSession(ctx, "day2")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.Company != "Globex" {
		t.Fatalf("expected company from speakers, got %q", session.Company)
	}
	if session.Day != "Wednesday" || session.TimeRange != "8:30 AM - 9:15 AM" {
		t.Fatalf("unexpected labels %q %q", session.Day, session.TimeRange)
	}
	if !strings.HasPrefix(session.GoogleCalendarURL, "https://calendar.google.com/") {
		t.Fatalf("expected a calendar link, got %s", session.GoogleCalendarURL)
	}

	if _, err := svc.GetSpeaker(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetSession(ctx, "nothing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProgramService_FacetsFollowState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	machine := newMachine(t, persistence.NewMemoryStore())
	svc := NewProgramServiceWithLogger(&datasetStub{data: testfixtures.SampleDataset()}, machine, time.UTC, discardLogger())

	before, err := svc.SpeakerFacets(ctx)
	if err != nil {
		t.Fatalf("SpeakerFacets failed: %v", err)
	}
	if len(before.Companies) != 3 {
		t.Fatalf("expected three companies, got %v", before.Companies)
	}

	if _, err := machine.Reject(ctx, bookmarks.KindSpeaker, "grace"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	after, err := svc.SpeakerFacets(ctx)
	if err != nil {
		t.Fatalf("SpeakerFacets failed: %v", err)
	}
	if len(after.Companies) != 2 {
		t.Fatalf("expected facets to reflect the rejection, got %v", after.Companies)
	}

	sessionFacets, err := svc.SessionFacets(ctx)
	if err != nil {
		t.Fatalf("SessionFacets failed: %v", err)
	}
	for _, track := range sessionFacets.Tracks {
		if track == "Keynotes" {
			t.Fatalf("expected the cascaded keynote to be gone from the facets")
		}
	}
}

func TestProgramService_Personal(t *testing.T) {
	t.Parallel()

	state := bookmarks.State{SpeakerBookmarks: bookmarks.NewIDSet("grace"), SessionBookmarks: bookmarks.NewIDSet("day2")}
	svc := NewProgramServiceWithLogger(&datasetStub{data: testfixtures.SampleDataset()}, stateStub{state: state}, time.UTC, discardLogger())

	you, err := svc.Personal(context.Background())
	if err != nil {
		t.Fatalf("Personal failed: %v", err)
	}
	if len(you.Speakers) != 1 || !reflect.DeepEqual(sessionIDs(you.Sessions), []string{"keynote", "day2"}) {
		t.Fatalf("unexpected personal view %+v", you)
	}
	if you.Conflicts == nil || len(you.Conflicts) != 0 {
		t.Fatalf("expected an empty conflict list, got %+v", you.Conflicts)
	}

	state = bookmarks.State{SpeakerBookmarks: bookmarks.NewIDSet("linus")}
	svc = NewProgramServiceWithLogger(&datasetStub{data: testfixtures.SampleDataset()}, stateStub{state: state}, time.UTC, discardLogger())
	you, err = svc.Personal(context.Background())
	if err != nil {
		t.Fatalf("Personal failed: %v", err)
	}
	want := []scheduler.Conflict{{SessionID: "agents", WithSessionID: "evals", Type: scheduler.ConflictTypeTime, OverlapMinutes: 15}}
	if !reflect.DeepEqual(you.Conflicts, want) {
		t.Fatalf("expected agents and evals to conflict, got %+v", you.Conflicts)
	}
}

func TestBookmarkService_ChecksIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := testfixtures.NewFailingStore()
	machine := newMachine(t, store)
	svc := NewBookmarkServiceWithLogger(machine, &datasetStub{data: testfixtures.SampleDataset()}, nil, discardLogger())

	if _, err := svc.Toggle(ctx, bookmarks.KindSpeaker, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown speaker, got %v", err)
	}
	if _, err := svc.Reject(ctx, bookmarks.KindSession, "grace"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a speaker id used as session, got %v", err)
	}

	_, err := svc.BookmarkAll(ctx, bookmarks.KindSession, []string{"keynote", "missing", "gone"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["ids"] != "unknown session ids: missing, gone" {
		t.Fatalf("expected validation error listing unknown ids, got %v", err)
	}
	if store.Puts() != 0 {
		t.Fatalf("expected no writes for rejected requests, got %d", store.Puts())
	}

	state, err := svc.RejectAll(ctx, bookmarks.KindSession, []string{"keynote", "lunch"})
	if err != nil {
		t.Fatalf("RejectAll failed: %v", err)
	}
	if !state.IsRejected(bookmarks.KindSession, "lunch") || store.Puts() != 1 {
		t.Fatalf("expected one write rejecting both sessions, got %+v after %d writes", state, store.Puts())
	}
}

func TestBookmarkService_ToggleAndExport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := testfixtures.NewClock(time.Time{})
	svc := NewBookmarkServiceWithLogger(newMachine(t, persistence.NewMemoryStore()), &datasetStub{data: testfixtures.SampleDataset()}, clock.NowFunc(), discardLogger())

	state, err := svc.Toggle(ctx, bookmarks.KindSpeaker, "grace")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !state.IsBookmarked(bookmarks.KindSpeaker, "grace") {
		t.Fatalf("expected grace bookmarked")
	}

	export, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if export.FileName != "conference-bookmarks-2025-06-02.json" || !strings.Contains(string(export.Data), `"grace"`) {
		t.Fatalf("unexpected export %s %s", export.FileName, export.Data)
	}

	imported, err := svc.Import(ctx, export.Data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !imported.Equal(state) {
		t.Fatalf("expected re-importing an export to change nothing, got %+v", imported)
	}

	if _, err := svc.Import(ctx, []byte(`{"speakerBookmarks":[]}`)); !errors.Is(err, bookmarks.ErrInvalidImport) {
		t.Fatalf("expected ErrInvalidImport, got %v", err)
	}
}

func TestCalendarService_Layout(t *testing.T) {
	t.Parallel()

	state := bookmarks.State{SpeakerBookmarks: bookmarks.NewIDSet("linus")}
	svc := NewCalendarServiceWithLogger(&datasetStub{data: testfixtures.SampleDataset()}, stateStub{state: state}, calendar.DefaultOptions(time.UTC), nil, discardLogger())
	ctx := context.Background()

	grid, err := svc.Layout(ctx, CalendarQuery{Day: "Tuesday", BookmarksOnly: true})
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if len(grid.Events) != 2 {
		t.Fatalf("expected linus's two sessions, got %d", len(grid.Events))
	}
	if grid.Events[0].Column == grid.Events[1].Column {
		t.Fatalf("expected overlapping sessions in different columns")
	}

	grid, err = svc.Layout(ctx, CalendarQuery{Day: "Tuesday", Hidden: []string{"lunch", "evals"}})
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if grid.TotalCount != 2 {
		t.Fatalf("expected hidden sessions to be skipped, got %d", grid.TotalCount)
	}

	grid, err = svc.Layout(ctx, CalendarQuery{Room: "Nowhere"})
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if !grid.Placeholder {
		t.Fatalf("expected a placeholder grid for an empty selection")
	}
}

func TestCalendarService_ExportICS(t *testing.T) {
	t.Parallel()

	state := bookmarks.State{SessionRejections: bookmarks.NewIDSet("lunch")}
	clock := testfixtures.NewClock(time.Time{})
	svc := NewCalendarServiceWithLogger(&datasetStub{data: testfixtures.SampleDataset()}, stateStub{state: state}, calendar.DefaultOptions(time.UTC), clock.NowFunc(), discardLogger())
	ctx := context.Background()

	all, err := svc.ExportICS(ctx, nil)
	if err != nil {
		t.Fatalf("ExportICS failed: %v", err)
	}
	if got := strings.Count(string(all.Data), "BEGIN:VEVENT"); got != 5 {
		t.Fatalf("expected every session including rejected ones, got %d events", got)
	}
	if all.FileName != "conference-sessions-2025-06-02.ics" {
		t.Fatalf("unexpected file name %s", all.FileName)
	}

	subset, err := svc.ExportICS(ctx, []string{"evals"})
	if err != nil {
		t.Fatalf("ExportICS failed: %v", err)
	}
	if got := strings.Count(string(subset.Data), "BEGIN:VEVENT"); got != 1 {
		t.Fatalf("expected one event, got %d", got)
	}

	var vErr *ValidationError
	if _, err := svc.ExportICS(ctx, []string{"evals", "bogus"}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for unknown ids, got %v", err)
	}
}

func TestFacetCache(t *testing.T) {
	current := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	cache := newFacetCache(time.Second, 2, func() time.Time { return current }, cloneSpeakerFacets)

	original := view.SpeakerFacets{Companies: []string{"Acme"}}
	cache.Store("key", original)
	original.Companies[0] = "mutated"

	cached, ok := cache.Get("key")
	if !ok || cached.Companies[0] != "Acme" {
		t.Fatalf("expected an independent cached copy, got %+v (hit=%v)", cached, ok)
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.Get("key"); ok {
		t.Fatalf("expected entry to expire")
	}

	cache.Store("a", view.SpeakerFacets{})
	cache.Store("b", view.SpeakerFacets{})
	cache.Store("c", view.SpeakerFacets{})
	if len(cache.entries) > 2 {
		t.Fatalf("expected at most two entries, got %d", len(cache.entries))
	}

	cache.Invalidate()
	if _, ok := cache.Get("c"); ok {
		t.Fatalf("expected cache to be empty after invalidation")
	}
}
