package testfixtures

import (
	"fmt"
	"time"

	"github.com/example/program-explorer/internal/program"
)

// ConferenceDay is midnight UTC of the first sample conference day.
var ConferenceDay = time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)

// At returns HH:MM on the given conference day (0 based) in UTC.
func At(day int, clock string) time.Time {
	var hour, minute int
	if _, err := fmt.Sscanf(clock, "%d:%d", &hour, &minute); err != nil {
		panic(fmt.Sprintf("testfixtures: bad clock %q: %v", clock, err))
	}
	return ConferenceDay.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ----------------------------- Speaker fixtures -----------------------------

// SpeakerOption configures a generated speaker.
type SpeakerOption func(*program.Speaker)

// NewSpeaker returns a speaker with deterministic defaults derived from id.
func NewSpeaker(id string, opts ...SpeakerOption) program.Speaker {
	speaker := program.Speaker{
		ID:        id,
		FirstName: "Speaker",
		LastName:  id,
		FullName:  "Speaker " + id,
	}
	for _, opt := range opts {
		opt(&speaker)
	}
	return speaker
}

// WithSpeakerName overrides the full name.
func WithSpeakerName(name string) SpeakerOption {
	return func(s *program.Speaker) { s.FullName = name }
}

// WithTopSpeaker flags the speaker as a top speaker.
func WithTopSpeaker() SpeakerOption {
	return func(s *program.Speaker) { s.IsTopSpeaker = true }
}

// WithCompany sets the enrichment company.
func WithCompany(company string) SpeakerOption {
	return func(s *program.Speaker) { s.Company = company }
}

// WithSpeakerTitle sets the job title.
func WithSpeakerTitle(title string) SpeakerOption {
	return func(s *program.Speaker) { s.Title = title }
}

// WithPositions sets the seniority tags.
func WithPositions(positions ...program.Position) SpeakerOption {
	return func(s *program.Speaker) { s.Position = positions }
}

// WithField sets the field of work.
func WithField(field string) SpeakerOption {
	return func(s *program.Speaker) { s.Field = field }
}

// WithBio sets the biography.
func WithBio(bio string) SpeakerOption {
	return func(s *program.Speaker) { s.Bio = bio }
}

// ----------------------------- Session fixtures -----------------------------

// SessionOption configures a generated session.
type SessionOption func(*program.Session)

// NewSession returns a session spanning [start, end).
func NewSession(id string, start, end time.Time, opts ...SessionOption) program.Session {
	session := program.Session{
		ID:       id,
		Title:    "Session " + id,
		StartsAt: start,
		EndsAt:   end,
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSpeakers sets the referenced speaker ids.
func WithSpeakers(ids ...string) SessionOption {
	return func(s *program.Session) { s.Speakers = ids }
}

// WithSessionTitle sets title and description.
func WithSessionTitle(title, description string) SessionOption {
	return func(s *program.Session) {
		s.Title = title
		s.Description = description
	}
}

// WithRoom sets the room reference and display name.
func WithRoom(id, name string) SessionOption {
	return func(s *program.Session) {
		s.RoomID = id
		s.Room = name
	}
}

// WithTags sets track, level, scope and format.
func WithTags(track, level, scope, format string) SessionOption {
	return func(s *program.Session) {
		s.Track = track
		s.Level = level
		s.Scope = scope
		s.Format = format
	}
}

// WithCompanies sets the comma separated company column.
func WithCompanies(companies string) SessionOption {
	return func(s *program.Session) { s.Companies = companies }
}

// WithServiceSession marks a break or other non-talk slot.
func WithServiceSession() SessionOption {
	return func(s *program.Session) { s.IsServiceSession = true }
}

// ----------------------------- Datasets -----------------------------

// NewDataset assembles a dataset and fingerprints it by its ids.
func NewDataset(rooms []program.Room, sessions []program.Session, speakers []program.Speaker) *program.Dataset {
	fingerprintSource := ""
	for _, session := range sessions {
		fingerprintSource += session.ID + ";"
	}
	for _, speaker := range speakers {
		fingerprintSource += speaker.ID + ";"
	}
	return &program.Dataset{
		Rooms:       rooms,
		Sessions:    sessions,
		Speakers:    speakers,
		Fingerprint: program.Fingerprint([]byte(fingerprintSource)),
	}
}

// SampleDataset returns a small two day program:
//
//	day 0  09:00-10:00 keynote    Keynote Hall  top speaker "grace"
//	day 0  10:00-10:45 agents     Keynote Hall  "linus", "ada"
//	day 0  10:30-11:15 evals      Workshop A    "linus"
//	day 0  12:00-13:00 lunch      Keynote Hall  service session
//	day 1  08:30-09:15 day2       Workshop A    "ada" and a dangling "ghost"
func SampleDataset() *program.Dataset {
	rooms := []program.Room{
		{ID: "r1", Name: "Keynote Hall", Sort: 1},
		{ID: "r2", Name: "Workshop A", Sort: 2},
	}

	speakers := []program.Speaker{
		NewSpeaker("grace",
			WithSpeakerName("Grace Hopper"),
			WithTopSpeaker(),
			WithCompany("Navy Labs"),
			WithSpeakerTitle("CTO"),
			WithPositions(program.PositionCTO),
			WithField("Research"),
			WithBio("Compiler pioneer."),
		),
		NewSpeaker("linus",
			WithSpeakerName("Linus Field"),
			WithCompany("Acme"),
			WithSpeakerTitle("Staff Engineer"),
			WithPositions(program.PositionSeniorEngineer, program.PositionEngineer),
			WithField("Software Engineering"),
			WithBio("Kernel hacker and eval enthusiast."),
		),
		NewSpeaker("ada",
			WithSpeakerName("Ada Chief"),
			WithCompany("Globex"),
			WithSpeakerTitle("CEO"),
			WithPositions(program.PositionCEO, program.PositionFounder),
			WithField("AI engineering"),
		),
	}

	sessions := []program.Session{
		NewSession("keynote", At(0, "09:00"), At(0, "10:00"),
			WithSessionTitle("Opening Keynote", "State of AI engineering"),
			WithSpeakers("grace"),
			WithRoom("r1", "Keynote Hall"),
			WithTags("Keynotes", "Beginner", "Broad", "Keynote"),
			WithCompanies("Navy Labs"),
		),
		NewSession("agents", At(0, "10:00"), At(0, "10:45"),
			WithSessionTitle("Agents in Production", "Lessons from shipping agents"),
			WithSpeakers("linus", "ada"),
			WithRoom("r1", "Keynote Hall"),
			WithTags("Agents", "Intermediate", "Focused", "Talk"),
			WithCompanies("Acme, Globex"),
		),
		NewSession("evals", At(0, "10:30"), At(0, "11:15"),
			WithSessionTitle("Evals that Matter", "Measuring model quality, pragmatically"),
			WithSpeakers("linus"),
			WithRoom("r2", "Workshop A"),
			WithTags("Evals", "Advanced", "Focused", "Workshop"),
		),
		NewSession("lunch", At(0, "12:00"), At(0, "13:00"),
			WithSessionTitle("Lunch", ""),
			WithRoom("r1", "Keynote Hall"),
			WithServiceSession(),
		),
		NewSession("day2", At(1, "08:30"), At(1, "09:15"),
			WithSessionTitle("Founders Breakfast", "Building AI companies"),
			WithSpeakers("ada", "ghost"),
			WithRoom("r2", "Workshop A"),
			WithTags("Agents", "Beginner", "Broad", "Panel"),
			WithCompanies("unknown"),
		),
	}

	return NewDataset(rooms, sessions, speakers)
}
