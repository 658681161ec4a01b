package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/program-explorer/internal/application"
	"github.com/example/program-explorer/internal/filter"
	"github.com/example/program-explorer/internal/program"
)

// queryParser reads filter forms from a query string and collects every
// malformed parameter before failing.
type queryParser struct {
	values url.Values
	errs   map[string]string
}

func newQueryParser(values url.Values) *queryParser {
	return &queryParser{values: values}
}

// list accepts repeated keys and comma separated values alike. It serves keys
// whose values never contain a comma: statuses, positions, days and ids.
func (p *queryParser) list(key string) []string {
	var out []string
	for _, raw := range p.values[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// repeated accepts repeated keys only. Facet values such as "Acme, Inc." keep
// their commas.
func (p *queryParser) repeated(key string) []string {
	var out []string
	for _, raw := range p.values[key] {
		if raw = strings.TrimSpace(raw); raw != "" {
			out = append(out, raw)
		}
	}
	return out
}

func (p *queryParser) text(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) flag(key string) bool {
	raw := p.text(key)
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, "must be true or false")
		return false
	}
	return value
}

func (p *queryParser) positions(key string) []program.Position {
	raw := p.list(key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]program.Position, 0, len(raw))
	for _, value := range raw {
		out = append(out, program.Position(value))
	}
	return out
}

func (p *queryParser) statuses(key string) []filter.BookmarkStatus {
	raw := p.list(key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]filter.BookmarkStatus, 0, len(raw))
	for _, value := range raw {
		status, err := filter.ParseStatus(value)
		if err != nil {
			p.fail(key, fmt.Sprintf("unknown status %q, expected bookmarked, rejected or neither", value))
			continue
		}
		out = append(out, status)
	}
	return out
}

func (p *queryParser) fail(key, message string) {
	if p.errs == nil {
		p.errs = make(map[string]string)
	}
	p.errs[key] = message
}

func (p *queryParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return &application.ValidationError{FieldErrors: p.errs}
}

func (p *queryParser) speakerSpec() filter.SpeakerSpec {
	return filter.SpeakerSpec{
		Titles:     p.repeated("title"),
		Positions:  p.positions("position"),
		Fields:     p.repeated("field"),
		Companies:  p.repeated("company"),
		Statuses:   p.statuses("status"),
		TopOnly:    p.flag("top"),
		BioSearch:  p.text("bio"),
		NameSearch: p.text("name"),
	}
}

func (p *queryParser) sessionSpec() filter.SessionSpec {
	return filter.SessionSpec{
		SpeakerPositions:       p.positions("position"),
		Companies:              p.repeated("company"),
		Statuses:               p.statuses("status"),
		Tracks:                 p.repeated("track"),
		Days:                   p.list("day"),
		Levels:                 p.repeated("level"),
		Scopes:                 p.repeated("scope"),
		Rooms:                  p.repeated("room"),
		TimeFrom:               p.text("from"),
		TimeTo:                 p.text("to"),
		CompanySearch:          p.text("company_search"),
		TitleDescriptionSearch: p.text("q"),
		BookmarkedOnly:         p.flag("bookmarked"),
	}
}

// calendarQuery reads the session filters plus the calendar's own options.
// A single day or room goes to the dedicated fields.
func (p *queryParser) calendarQuery() application.CalendarQuery {
	spec := p.sessionSpec()
	query := application.CalendarQuery{
		BookmarksOnly: p.flag("bookmarks_only"),
		Hidden:        p.list("hide"),
	}
	if len(spec.Days) == 1 {
		query.Day, spec.Days = spec.Days[0], nil
	}
	if len(spec.Rooms) == 1 {
		query.Room, spec.Rooms = spec.Rooms[0], nil
	}
	query.Filters = spec
	return query
}
