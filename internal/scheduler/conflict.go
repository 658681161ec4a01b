// Package scheduler checks an attendee's personal schedule for sessions they
// cannot attend together.
package scheduler

import (
	"sort"
	"time"

	"github.com/example/program-explorer/internal/calendar"
	"github.com/example/program-explorer/internal/view"
)

// ConflictType describes why two bookmarked sessions collide.
type ConflictType string

const (
	// ConflictTypeTime indicates the sessions run at the same time in different rooms.
	ConflictTypeTime ConflictType = "time"
	// ConflictTypeRoom indicates the sessions overlap in the same room, which
	// usually points at a data problem.
	ConflictTypeRoom ConflictType = "room"
)

// Conflict details an overlapping pair of sessions that callers can present to users.
type Conflict struct {
	SessionID      string       `json:"sessionId"`
	WithSessionID  string       `json:"withSessionId"`
	Type           ConflictType `json:"type"`
	OverlapMinutes int          `json:"overlapMinutes"`
}

// DetectConflicts reports every overlapping pair among sessions, each pair once
// with the earlier session first. Sessions touching at an endpoint do not
// conflict.
func DetectConflicts(sessions []view.ActiveSession) []Conflict {
	ordered := make([]view.ActiveSession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Session.StartsAt.Before(ordered[j].Session.StartsAt)
	})

	conflicts := make([]Conflict, 0)
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			// later sessions cannot overlap once one starts after i ends
			if !ordered[j].Session.StartsAt.Before(ordered[i].Session.EndsAt) {
				break
			}
			if !calendar.Overlaps(ordered[i], ordered[j]) {
				continue
			}
			conflicts = append(conflicts, newConflict(ordered[i], ordered[j]))
		}
	}
	return conflicts
}

func newConflict(a, b view.ActiveSession) Conflict {
	end := a.Session.EndsAt
	if b.Session.EndsAt.Before(end) {
		end = b.Session.EndsAt
	}
	kind := ConflictTypeTime
	if a.Session.RoomID != "" && a.Session.RoomID == b.Session.RoomID {
		kind = ConflictTypeRoom
	}
	return Conflict{
		SessionID:      a.Session.ID,
		WithSessionID:  b.Session.ID,
		Type:           kind,
		OverlapMinutes: int(end.Sub(b.Session.StartsAt) / time.Minute),
	}
}
