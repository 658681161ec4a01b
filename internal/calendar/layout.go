// Package calendar positions sessions on a time grid and exports them to
// other calendar applications.
package calendar

import (
	"fmt"
	"math"
	"time"

	"github.com/example/program-explorer/internal/filter"
	"github.com/example/program-explorer/internal/view"
)

// Options controls the grid geometry. Lengths are in pixels.
type Options struct {
	PixelsPerMinute    float64
	MinimumHeight      float64
	ColumnAreaWidth    float64
	MinimumColumnWidth float64
	ColumnGap          float64
	MaxEvents          int
	Location           *time.Location
}

// DefaultOptions returns the standard grid in loc.
func DefaultOptions(loc *time.Location) Options {
	return Options{
		PixelsPerMinute:    5,
		MinimumHeight:      40,
		ColumnAreaWidth:    960,
		MinimumColumnWidth: 150,
		ColumnGap:          8,
		MaxEvents:          100,
		Location:           loc,
	}
}

// placeholder hours shown when there is nothing to lay out
const (
	placeholderFirstHour = 9
	placeholderLastHour  = 17
)

// Geometry is an absolute position relative to the grid origin.
type Geometry struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// Event is a session placed on the grid.
type Event struct {
	Session  view.ActiveSession `json:"session"`
	Geometry Geometry           `json:"geometry"`
	Column   int                `json:"column"`
}

// Grid is the laid out calendar.
type Grid struct {
	Events    []Event  `json:"events"`
	TimeSlots []string `json:"timeSlots"`
	// FirstHour is the local hour the grid's top edge stands for.
	FirstHour   int     `json:"firstHour"`
	Height      float64 `json:"height"`
	TotalCount  int     `json:"totalCount"`
	Truncated   bool    `json:"truncated"`
	Placeholder bool    `json:"placeholder"`
}

// Layout places sessions on a grid whose top edge is the earliest local start
// hour. Only the first MaxEvents sessions by start time are placed.
//
// Columns are assigned in start order: each session takes the lowest column
// not held by an already placed session it overlaps. Widths come from each
// session's direct overlap group only, so chains of overlaps (A with B, B
// with C, but not A with C) are not coloured as one cluster. Groups are
// visited in start order and the last visit sets a session's width and
// offset, so in such chains the rendered boxes of two overlapping sessions
// may intersect horizontally.
func Layout(sessions []view.ActiveSession, opts Options) Grid {
	opts = opts.withDefaults()

	sorted := filter.SortByStart(sessions)
	grid := Grid{TotalCount: len(sorted), Events: []Event{}}
	if opts.MaxEvents > 0 && len(sorted) > opts.MaxEvents {
		sorted = sorted[:opts.MaxEvents]
		grid.Truncated = true
	}

	if len(sorted) == 0 {
		grid.Placeholder = true
		grid.FirstHour = placeholderFirstHour
		grid.TimeSlots = hourSlots(placeholderFirstHour, placeholderLastHour)
		grid.Height = opts.hoursHeight(placeholderFirstHour, placeholderLastHour)
		return grid
	}

	firstHour, lastHour := 23, 0
	for _, session := range sorted {
		start, end := session.Session.StartsAt.In(opts.Location), session.Session.EndsAt.In(opts.Location)
		firstHour = min(firstHour, start.Hour())
		lastHour = max(lastHour, end.Hour())
	}
	lastHour = max(lastHour, firstHour)
	grid.FirstHour = firstHour
	grid.TimeSlots = hourSlots(firstHour, lastHour)
	grid.Height = opts.hoursHeight(firstHour, lastHour)

	events := make([]Event, len(sorted))
	for i, session := range sorted {
		events[i] = Event{Session: session, Geometry: opts.vertical(session, firstHour)}
	}

	overlaps := overlapSets(sorted)
	assignColumns(events, overlaps)

	full := max(opts.MinimumColumnWidth, opts.ColumnAreaWidth)
	for i := range events {
		events[i].Geometry.Width = full
	}
	for i := range events {
		if len(overlaps[i]) == 0 {
			continue
		}
		group := append([]int{i}, overlaps[i]...)
		columns := 0
		for _, member := range group {
			columns = max(columns, events[member].Column+1)
		}
		width := max(opts.MinimumColumnWidth, opts.ColumnAreaWidth/float64(columns))
		for _, member := range group {
			events[member].Geometry.Width = width
			events[member].Geometry.Left = float64(events[member].Column) * (width + opts.ColumnGap)
		}
	}

	grid.Events = events
	return grid
}

// Overlaps reports whether two sessions share any instant. Sessions that only
// touch at an endpoint do not overlap.
func Overlaps(a, b view.ActiveSession) bool {
	return a.Session.StartsAt.Before(b.Session.EndsAt) && a.Session.EndsAt.After(b.Session.StartsAt)
}

func overlapSets(sessions []view.ActiveSession) [][]int {
	sets := make([][]int, len(sessions))
	for i := range sessions {
		for j := range sessions {
			if i != j && Overlaps(sessions[i], sessions[j]) {
				sets[i] = append(sets[i], j)
			}
		}
	}
	return sets
}

func assignColumns(events []Event, overlaps [][]int) {
	for i := range events {
		taken := make(map[int]bool)
		for _, j := range overlaps[i] {
			if j < i {
				taken[events[j].Column] = true
			}
		}
		column := 0
		for taken[column] {
			column++
		}
		events[i].Column = column
	}
}

func (o Options) vertical(session view.ActiveSession, firstHour int) Geometry {
	start := session.Session.StartsAt.In(o.Location)
	minutes := float64((start.Hour()-firstHour)*60 + start.Minute())
	duration := session.Session.EndsAt.Sub(session.Session.StartsAt).Minutes()
	return Geometry{
		Top:    minutes * o.PixelsPerMinute,
		Height: math.Max(duration*o.PixelsPerMinute, o.MinimumHeight),
	}
}

func (o Options) hoursHeight(first, last int) float64 {
	return float64((last-first+1)*60) * o.PixelsPerMinute
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions(o.Location)
	if o.PixelsPerMinute <= 0 {
		o.PixelsPerMinute = defaults.PixelsPerMinute
	}
	if o.MinimumHeight < 0 {
		o.MinimumHeight = 0
	}
	if o.ColumnAreaWidth <= 0 {
		o.ColumnAreaWidth = defaults.ColumnAreaWidth
	}
	if o.MinimumColumnWidth < 0 {
		o.MinimumColumnWidth = 0
	}
	if o.ColumnGap < 0 {
		o.ColumnGap = 0
	}
	if o.MaxEvents <= 0 {
		o.MaxEvents = defaults.MaxEvents
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

func hourSlots(first, last int) []string {
	slots := make([]string, 0, last-first+1)
	for hour := first; hour <= last; hour++ {
		slots = append(slots, fmt.Sprintf("%d:00", hour))
	}
	return slots
}
