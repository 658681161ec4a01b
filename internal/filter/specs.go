package filter

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/example/program-explorer/internal/program"
	"github.com/example/program-explorer/internal/view"
)

// BookmarkStatus selects items by their curation state.
type BookmarkStatus string

const (
	StatusBookmarked BookmarkStatus = "bookmarked"
	StatusRejected   BookmarkStatus = "rejected"
	StatusNeither    BookmarkStatus = "neither"
)

// ParseStatus validates a status name.
func ParseStatus(value string) (BookmarkStatus, error) {
	switch status := BookmarkStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case StatusBookmarked, StatusRejected, StatusNeither:
		return status, nil
	default:
		return "", fmt.Errorf("filter: unknown bookmark status %q", value)
	}
}

func selectsRejected(statuses []BookmarkStatus) bool {
	return slices.Contains(statuses, StatusRejected)
}

// statusPredicate passes an item matching any selected status. Hidden items
// only ever match the rejected status, so a superset input adds rejected
// items and nothing else.
func statusPredicate[T any](statuses []BookmarkStatus, bookmarked, rejected, hidden func(T) bool) Predicate[T] {
	if len(statuses) == 0 {
		return nil
	}
	return func(item T) bool {
		for _, status := range statuses {
			switch status {
			case StatusBookmarked:
				if bookmarked(item) && !hidden(item) {
					return true
				}
			case StatusRejected:
				if rejected(item) {
					return true
				}
			case StatusNeither:
				if !bookmarked(item) && !hidden(item) {
					return true
				}
			}
		}
		return false
	}
}

// SpeakerSpec is the speaker filter form. Zero values impose no constraint.
type SpeakerSpec struct {
	Titles     []string
	Positions  []program.Position
	Fields     []string
	Companies  []string
	Statuses   []BookmarkStatus
	TopOnly    bool
	BioSearch  string
	NameSearch string
}

// NeedsSuperset reports whether rejected speakers must be part of the input.
func (s SpeakerSpec) NeedsSuperset() bool {
	return selectsRejected(s.Statuses)
}

// Predicates builds one predicate per constrained field.
func (s SpeakerSpec) Predicates() []Predicate[view.ActiveSpeaker] {
	predicates := []Predicate[view.ActiveSpeaker]{
		OneOf(s.Titles, func(a view.ActiveSpeaker) string { return a.Speaker.Title }),
		AnyOf(s.Positions, func(a view.ActiveSpeaker) []program.Position { return a.Speaker.Position }),
		OneOf(s.Fields, func(a view.ActiveSpeaker) string { return a.Speaker.Field }),
		OneOf(s.Companies, func(a view.ActiveSpeaker) string { return a.Speaker.Company }),
		statusPredicate(s.Statuses,
			func(a view.ActiveSpeaker) bool { return a.Annotations.Bookmarked },
			func(a view.ActiveSpeaker) bool { return a.Annotations.Rejected },
			func(a view.ActiveSpeaker) bool { return a.Annotations.Rejected },
		),
		ContainsFold(s.BioSearch, func(a view.ActiveSpeaker) []string { return []string{a.Speaker.Bio} }),
		ContainsFold(s.NameSearch, func(a view.ActiveSpeaker) []string { return []string{a.Speaker.DisplayName()} }),
	}
	if s.TopOnly {
		predicates = append(predicates, func(a view.ActiveSpeaker) bool { return a.Speaker.IsTopSpeaker })
	}
	return predicates
}

// Speakers filters speakers by spec.
func Speakers(speakers []view.ActiveSpeaker, spec SpeakerSpec) []view.ActiveSpeaker {
	return Apply(speakers, spec.Predicates()...)
}

// SessionSpec is the session filter form. Zero values impose no constraint.
type SessionSpec struct {
	SpeakerPositions       []program.Position
	Companies              []string
	Statuses               []BookmarkStatus
	Tracks                 []string
	Days                   []string
	Levels                 []string
	Scopes                 []string
	Rooms                  []string
	TimeFrom               string
	TimeTo                 string
	CompanySearch          string
	TitleDescriptionSearch string
	BookmarkedOnly         bool
}

// NeedsSuperset reports whether rejected sessions must be part of the input.
func (s SessionSpec) NeedsSuperset() bool {
	return selectsRejected(s.Statuses)
}

// Predicates builds one predicate per constrained field. Days and the time
// range are evaluated in loc. Malformed time bounds yield ErrInvalidClock.
func (s SessionSpec) Predicates(loc *time.Location) ([]Predicate[view.ActiveSession], error) {
	timeRange, err := ClockRange(s.TimeFrom, s.TimeTo, loc, func(a view.ActiveSession) time.Time { return a.Session.StartsAt })
	if err != nil {
		return nil, err
	}

	predicates := []Predicate[view.ActiveSession]{
		AnyOf(s.SpeakerPositions, func(a view.ActiveSession) []program.Position { return a.Annotations.SpeakerPositions }),
		AnyOf(s.Companies, func(a view.ActiveSession) []string { return a.Session.CompanyList() }),
		statusPredicate(s.Statuses,
			view.ActiveSession.IsBookmarked,
			func(a view.ActiveSession) bool { return a.Annotations.Rejected },
			func(a view.ActiveSession) bool { return a.Annotations.Hidden },
		),
		OneOf(s.Tracks, func(a view.ActiveSession) string { return a.Session.Track }),
		OneOf(s.Days, func(a view.ActiveSession) string {
			return program.DayLabel(a.Session.StartsAt, a.Session.EndsAt, loc)
		}),
		OneOf(s.Levels, func(a view.ActiveSession) string { return a.Session.Level }),
		OneOf(s.Scopes, func(a view.ActiveSession) string { return a.Session.Scope }),
		OneOf(s.Rooms, func(a view.ActiveSession) string { return a.Session.Room }),
		timeRange,
		companySearch(s.CompanySearch),
		ContainsFold(s.TitleDescriptionSearch, func(a view.ActiveSession) []string {
			return []string{a.Session.Title, a.Session.Description}
		}),
	}
	if s.BookmarkedOnly {
		predicates = append(predicates, view.ActiveSession.IsBookmarked)
	}
	return predicates, nil
}

// sessions without a company column are not excluded by a company search
func companySearch(query string) Predicate[view.ActiveSession] {
	match := ContainsFold(query, func(a view.ActiveSession) []string { return []string{a.Session.Companies} })
	if match == nil {
		return nil
	}
	return func(a view.ActiveSession) bool {
		return strings.TrimSpace(a.Session.Companies) == "" || match(a)
	}
}

// Sessions filters sessions by spec, keeping input order.
func Sessions(sessions []view.ActiveSession, spec SessionSpec, loc *time.Location) ([]view.ActiveSession, error) {
	predicates, err := spec.Predicates(loc)
	if err != nil {
		return nil, err
	}
	return Apply(sessions, predicates...), nil
}

// SortByStart returns a copy ordered by start time. Ties keep input order.
func SortByStart(sessions []view.ActiveSession) []view.ActiveSession {
	out := append([]view.ActiveSession(nil), sessions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Session.StartsAt.Before(out[j].Session.StartsAt)
	})
	return out
}
