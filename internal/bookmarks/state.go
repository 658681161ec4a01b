// Package bookmarks holds the attendee's curation state: bookmarked and
// rejected speakers and sessions, how it is persisted, and the single state
// machine every change goes through.
package bookmarks

import (
	"encoding/json"
	"fmt"
)

// Kind selects the entity type an operation applies to.
type Kind string

const (
	KindSpeaker Kind = "speaker"
	KindSession Kind = "session"
)

// ParseKind accepts "speaker(s)" and "session(s)".
func ParseKind(value string) (Kind, error) {
	switch value {
	case "speaker", "speakers":
		return KindSpeaker, nil
	case "session", "sessions":
		return KindSession, nil
	default:
		return "", fmt.Errorf("bookmarks: unknown kind %q", value)
	}
}

// IDSet is an insertion ordered set of ids. The zero value is an empty set.
type IDSet struct {
	ids   []string
	index map[string]struct{}
}

// NewIDSet builds a set from ids, dropping duplicates.
func NewIDSet(ids ...string) IDSet {
	var s IDSet
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// Contains reports membership.
func (s IDSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids.
func (s IDSet) Len() int {
	return len(s.ids)
}

// IDs returns the ids in insertion order. The slice is a copy.
func (s IDSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	return NewIDSet(s.ids...)
}

// Union returns a new set with the ids of s followed by the new ids of other.
func (s IDSet) Union(other IDSet) IDSet {
	out := s.Clone()
	for _, id := range other.ids {
		out.add(id)
	}
	return out
}

// Equal reports whether both sets hold the same ids in the same order.
func (s IDSet) Equal(other IDSet) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for i := range s.ids {
		if s.ids[i] != other.ids[i] {
			return false
		}
	}
	return true
}

func (s *IDSet) add(id string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

func (s *IDSet) remove(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// MarshalJSON encodes the set as a JSON array, never null.
func (s IDSet) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

// UnmarshalJSON decodes a JSON array of strings.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// State is the persisted bookmark record. For each kind an id is never in
// both the bookmark and the rejection set after a Reject.
type State struct {
	SpeakerBookmarks  IDSet `json:"speakerBookmarks"`
	SessionBookmarks  IDSet `json:"sessionBookmarks"`
	SpeakerRejections IDSet `json:"speakerRejections"`
	SessionRejections IDSet `json:"sessionRejections"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	return State{
		SpeakerBookmarks:  s.SpeakerBookmarks.Clone(),
		SessionBookmarks:  s.SessionBookmarks.Clone(),
		SpeakerRejections: s.SpeakerRejections.Clone(),
		SessionRejections: s.SessionRejections.Clone(),
	}
}

// Equal compares all four sets.
func (s State) Equal(other State) bool {
	return s.SpeakerBookmarks.Equal(other.SpeakerBookmarks) &&
		s.SessionBookmarks.Equal(other.SessionBookmarks) &&
		s.SpeakerRejections.Equal(other.SpeakerRejections) &&
		s.SessionRejections.Equal(other.SessionRejections)
}

// Merge unions every set of other into a copy of s.
func (s State) Merge(other State) State {
	return State{
		SpeakerBookmarks:  s.SpeakerBookmarks.Union(other.SpeakerBookmarks),
		SessionBookmarks:  s.SessionBookmarks.Union(other.SessionBookmarks),
		SpeakerRejections: s.SpeakerRejections.Union(other.SpeakerRejections),
		SessionRejections: s.SessionRejections.Union(other.SessionRejections),
	}
}

// Bookmarks returns the bookmark set for kind.
func (s State) Bookmarks(kind Kind) IDSet {
	if kind == KindSession {
		return s.SessionBookmarks
	}
	return s.SpeakerBookmarks
}

// Rejections returns the rejection set for kind.
func (s State) Rejections(kind Kind) IDSet {
	if kind == KindSession {
		return s.SessionRejections
	}
	return s.SpeakerRejections
}

// IsBookmarked reports whether id is bookmarked for kind.
func (s State) IsBookmarked(kind Kind, id string) bool {
	return s.Bookmarks(kind).Contains(id)
}

// IsRejected reports whether id is rejected for kind.
func (s State) IsRejected(kind Kind, id string) bool {
	return s.Rejections(kind).Contains(id)
}

func (s *State) bookmarks(kind Kind) *IDSet {
	if kind == KindSession {
		return &s.SessionBookmarks
	}
	return &s.SpeakerBookmarks
}

func (s *State) rejections(kind Kind) *IDSet {
	if kind == KindSession {
		return &s.SessionRejections
	}
	return &s.SpeakerRejections
}
