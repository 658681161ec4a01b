package application

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/calendar"
	"github.com/example/program-explorer/internal/filter"
	"github.com/example/program-explorer/internal/program"
	"github.com/example/program-explorer/internal/scheduler"
	"github.com/example/program-explorer/internal/view"
)

// ProgramService answers read queries over the dataset combined with the
// current bookmark state.
type ProgramService struct {
	dataset  DatasetSource
	state    StateReader
	location *time.Location
	logger   *slog.Logger

	speakerFacets *facetCache[view.SpeakerFacets]
	sessionFacets *facetCache[view.SessionFacets]
}

// NewProgramService constructs a program service evaluating local times in loc.
func NewProgramService(dataset DatasetSource, state StateReader, loc *time.Location) *ProgramService {
	return NewProgramServiceWithLogger(dataset, state, loc, nil)
}

// NewProgramServiceWithLogger constructs a program service with a specified logger.
func NewProgramServiceWithLogger(dataset DatasetSource, state StateReader, loc *time.Location, logger *slog.Logger) *ProgramService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgramService{
		dataset:       dataset,
		state:         state,
		location:      loc,
		logger:        defaultLogger(logger),
		speakerFacets: newFacetCache(time.Minute, 32, time.Now, cloneSpeakerFacets),
		sessionFacets: newFacetCache(time.Minute, 32, time.Now, cloneSessionFacets),
	}
}

func (s *ProgramService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProgramService", operation, attrs...)
}

// Location returns the zone local times are evaluated in.
func (s *ProgramService) Location() *time.Location {
	return s.location
}

// Dataset returns the loaded program.
func (s *ProgramService) Dataset(ctx context.Context) (*program.Dataset, error) {
	if s == nil {
		return nil, fmt.Errorf("ProgramService is nil")
	}
	return loadDataset(ctx, s.dataset)
}

// Rooms lists rooms in their display order.
func (s *ProgramService) Rooms(ctx context.Context) ([]program.Room, error) {
	data, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	rooms := append([]program.Room(nil), data.Rooms...)
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Sort < rooms[j].Sort })
	return rooms, nil
}

// ListSpeakers returns the speakers matching spec. Rejected speakers are
// only considered when the filter selects the rejected status.
func (s *ProgramService) ListSpeakers(ctx context.Context, spec filter.SpeakerSpec) (speakers []view.ActiveSpeaker, err error) {
	if s == nil {
		err = fmt.Errorf("ProgramService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListSpeakers")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list speakers", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "speakers listed", "count", len(speakers))
	}()

	var data *program.Dataset
	data, err = loadDataset(ctx, s.dataset)
	if err != nil {
		return
	}

	state := s.snapshot()
	var candidates []view.ActiveSpeaker
	if spec.NeedsSuperset() {
		candidates = view.AnnotateSpeakers(data.Speakers, state)
	} else {
		candidates = view.DeriveActiveSpeakers(data.Speakers, state)
	}
	speakers = filter.Speakers(candidates, spec)
	return
}

// ListSessions returns the sessions matching spec ordered by start time.
func (s *ProgramService) ListSessions(ctx context.Context, spec filter.SessionSpec) (sessions []view.ActiveSession, err error) {
	if s == nil {
		err = fmt.Errorf("ProgramService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListSessions")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list sessions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "sessions listed", "count", len(sessions))
	}()

	if vErr := validateTimeRange(spec.TimeFrom, spec.TimeTo); vErr.HasErrors() {
		err = vErr
		return
	}

	var data *program.Dataset
	data, err = loadDataset(ctx, s.dataset)
	if err != nil {
		return
	}

	sessions, err = filterSessions(data, s.snapshot(), spec, s.location)
	if err != nil {
		return
	}
	sessions = filter.SortByStart(sessions)
	return
}

// SpeakerFacets returns the filter options of the active speakers.
func (s *ProgramService) SpeakerFacets(ctx context.Context) (view.SpeakerFacets, error) {
	data, err := s.Dataset(ctx)
	if err != nil {
		return view.SpeakerFacets{}, err
	}
	state := s.snapshot()
	key := cacheKey(data, state)
	if facets, ok := s.speakerFacets.Get(key); ok {
		return facets, nil
	}
	facets := view.SpeakerFacetsOf(view.DeriveActiveSpeakers(data.Speakers, state))
	s.speakerFacets.Store(key, facets)
	return facets, nil
}

// SessionFacets returns the filter options of the active sessions.
func (s *ProgramService) SessionFacets(ctx context.Context) (view.SessionFacets, error) {
	data, err := s.Dataset(ctx)
	if err != nil {
		return view.SessionFacets{}, err
	}
	state := s.snapshot()
	key := cacheKey(data, state)
	if facets, ok := s.sessionFacets.Get(key); ok {
		return facets, nil
	}
	facets := view.SessionFacetsOf(view.DeriveActiveSessions(data.Sessions, data.Speakers, state), s.location)
	s.sessionFacets.Store(key, facets)
	return facets, nil
}

// Personal returns the attendee's bookmarked speakers and sessions along with
// the sessions that overlap each other.
func (s *ProgramService) Personal(ctx context.Context) (PersonalSchedule, error) {
	data, err := s.Dataset(ctx)
	if err != nil {
		return PersonalSchedule{}, err
	}
	state := s.snapshot()
	personal := view.Personal(
		view.DeriveActiveSpeakers(data.Speakers, state),
		filter.SortByStart(view.DeriveActiveSessions(data.Sessions, data.Speakers, state)),
	)
	conflicts := scheduler.DetectConflicts(personal.Sessions)
	if len(conflicts) > 0 {
		s.loggerWith(ctx, "Personal", "conflict_count", len(conflicts)).DebugContext(ctx, "bookmarked sessions overlap")
	}
	return PersonalSchedule{PersonalView: personal, Conflicts: conflicts}, nil
}

// GetSpeaker returns one speaker, rejected or not, with the sessions that
// reference them.
func (s *ProgramService) GetSpeaker(ctx context.Context, id string) (detail SpeakerDetail, err error) {
	if s == nil {
		err = fmt.Errorf("ProgramService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetSpeaker", "speaker_id", id)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to get speaker", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var data *program.Dataset
	data, err = loadDataset(ctx, s.dataset)
	if err != nil {
		return
	}
	speaker, ok := data.Speaker(id)
	if !ok {
		err = ErrNotFound
		return
	}

	state := s.snapshot()
	detail.Speaker = view.AnnotateSpeakers([]program.Speaker{speaker}, state)[0]

	presented := make([]program.Session, 0, len(speaker.Sessions))
	for _, session := range data.Sessions {
		if slices.Contains(session.Speakers, id) {
			presented = append(presented, session)
		}
	}
	detail.Sessions = filter.SortByStart(view.AnnotateSessions(presented, data.Speakers, state))
	return
}

// GetSession returns one session, rejected or not, with display helpers.
func (s *ProgramService) GetSession(ctx context.Context, id string) (detail SessionDetail, err error) {
	if s == nil {
		err = fmt.Errorf("ProgramService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetSession", "session_id", id)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to get session", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var data *program.Dataset
	data, err = loadDataset(ctx, s.dataset)
	if err != nil {
		return
	}
	session, ok := data.Session(id)
	if !ok {
		err = ErrNotFound
		return
	}

	detail = SessionDetail{
		Session:           view.AnnotateSessions([]program.Session{session}, data.Speakers, s.snapshot())[0],
		Company:           program.SessionCompany(session, data.SpeakerIndex()),
		Day:               program.DayLabel(session.StartsAt, session.EndsAt, s.location),
		TimeRange:         program.TimeRangeLabel(session.StartsAt, session.EndsAt, s.location),
		GoogleCalendarURL: calendar.GoogleCalendarURL(session),
	}
	return
}

func (s *ProgramService) snapshot() bookmarks.State {
	if s.state == nil {
		return bookmarks.State{}
	}
	return s.state.Snapshot()
}

// filterSessions chooses the active view or the annotated superset and
// applies spec to it.
func filterSessions(data *program.Dataset, state bookmarks.State, spec filter.SessionSpec, loc *time.Location, extra ...filter.Predicate[view.ActiveSession]) ([]view.ActiveSession, error) {
	var candidates []view.ActiveSession
	if spec.NeedsSuperset() {
		candidates = view.AnnotateSessions(data.Sessions, data.Speakers, state)
	} else {
		candidates = view.DeriveActiveSessions(data.Sessions, data.Speakers, state)
	}

	predicates, err := spec.Predicates(loc)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("time", err.Error())
		return nil, vErr
	}
	return filter.Apply(candidates, append(predicates, extra...)...), nil
}

func validateTimeRange(from, to string) *ValidationError {
	vErr := &ValidationError{}
	if from != "" {
		if _, err := filter.ParseClock(from); err != nil {
			vErr.add("from", "must be a time of day formatted HH:MM")
		}
	}
	if to != "" {
		if _, err := filter.ParseClock(to); err != nil {
			vErr.add("to", "must be a time of day formatted HH:MM")
		}
	}
	return vErr
}

func loadDataset(ctx context.Context, source DatasetSource) (*program.Dataset, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: no dataset configured", ErrDatasetUnavailable)
	}
	data, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	return data, nil
}

// cacheKey identifies a dataset and bookmark state pair.
func cacheKey(data *program.Dataset, state bookmarks.State) string {
	encoded, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(encoded)
	return data.Fingerprint + "|" + hex.EncodeToString(sum[:])
}

func cloneSpeakerFacets(f view.SpeakerFacets) view.SpeakerFacets {
	return view.SpeakerFacets{
		Titles:    slices.Clone(f.Titles),
		Positions: slices.Clone(f.Positions),
		Fields:    slices.Clone(f.Fields),
		Companies: slices.Clone(f.Companies),
	}
}

func cloneSessionFacets(f view.SessionFacets) view.SessionFacets {
	return view.SessionFacets{
		Companies:        slices.Clone(f.Companies),
		Tracks:           slices.Clone(f.Tracks),
		Levels:           slices.Clone(f.Levels),
		Scopes:           slices.Clone(f.Scopes),
		Rooms:            slices.Clone(f.Rooms),
		SpeakerPositions: slices.Clone(f.SpeakerPositions),
		Days:             slices.Clone(f.Days),
	}
}
