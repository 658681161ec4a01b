package view

import (
	"sort"
	"time"

	"github.com/example/program-explorer/internal/program"
)

// MaxCompanyFacets bounds the company options offered for filtering.
const MaxCompanyFacets = 25

// SpeakerFacets are the values offered by the speaker filters.
type SpeakerFacets struct {
	Titles    []string           `json:"titles"`
	Positions []program.Position `json:"positions"`
	Fields    []string           `json:"fields"`
	Companies []string           `json:"companies"`
}

// SessionFacets are the values offered by the session filters.
type SessionFacets struct {
	Companies        []string           `json:"companies"`
	Tracks           []string           `json:"tracks"`
	Levels           []string           `json:"levels"`
	Scopes           []string           `json:"scopes"`
	Rooms            []string           `json:"rooms"`
	SpeakerPositions []program.Position `json:"speakerPositions"`
	Days             []string           `json:"days"`
}

// SpeakerFacetsOf collects distinct values in first-seen order. Companies are
// ordered by how many speakers work there and capped at MaxCompanyFacets.
func SpeakerFacetsOf(speakers []ActiveSpeaker) SpeakerFacets {
	var (
		titles    = newDistinct[string]()
		positions = newDistinct[program.Position]()
		fields    = newDistinct[string]()
		companies = newDistinct[string]()
	)
	for _, active := range speakers {
		speaker := active.Speaker
		titles.add(speaker.Title)
		fields.add(speaker.Field)
		companies.add(speaker.Company)
		for _, position := range speaker.Position {
			positions.add(position)
		}
	}
	return SpeakerFacets{
		Titles:    titles.values,
		Positions: positions.values,
		Fields:    fields.values,
		Companies: companies.byFrequency(MaxCompanyFacets),
	}
}

// SessionFacetsOf collects distinct session values, reading days in loc.
func SessionFacetsOf(sessions []ActiveSession, loc *time.Location) SessionFacets {
	var (
		companies = newDistinct[string]()
		tracks    = newDistinct[string]()
		levels    = newDistinct[string]()
		scopes    = newDistinct[string]()
		rooms     = newDistinct[string]()
		positions = newDistinct[program.Position]()
		days      = newDistinct[string]()
	)
	for _, active := range sessions {
		session := active.Session
		for _, company := range session.CompanyList() {
			companies.add(company)
		}
		tracks.add(session.Track)
		levels.add(session.Level)
		scopes.add(session.Scope)
		rooms.add(session.Room)
		for _, position := range active.Annotations.SpeakerPositions {
			positions.add(position)
		}
		days.add(program.DayLabel(session.StartsAt, session.EndsAt, loc))
	}
	return SessionFacets{
		Companies:        companies.byFrequency(MaxCompanyFacets),
		Tracks:           tracks.values,
		Levels:           levels.values,
		Scopes:           scopes.values,
		Rooms:            rooms.values,
		SpeakerPositions: positions.values,
		Days:             days.values,
	}
}

type distinct[T comparable] struct {
	values []T
	counts map[T]int
}

func newDistinct[T comparable]() *distinct[T] {
	return &distinct[T]{values: []T{}, counts: make(map[T]int)}
}

func (d *distinct[T]) add(value T) {
	var zero T
	if value == zero {
		return
	}
	if d.counts[value] == 0 {
		d.values = append(d.values, value)
	}
	d.counts[value]++
}

func (d *distinct[T]) byFrequency(limit int) []T {
	out := append([]T{}, d.values...)
	sort.SliceStable(out, func(i, j int) bool {
		return d.counts[out[i]] > d.counts[out[j]]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
