// Package view derives the read-only projections the explorer serves: the
// dataset with rejected entities removed and bookmark state attached.
//
// Every function here is pure. Results are recomputed from the dataset and a
// bookmark snapshot on each call and share no memory with their inputs.
package view

import (
	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/program"
)

// SpeakerAnnotations are the computed fields attached to a speaker.
type SpeakerAnnotations struct {
	Bookmarked bool `json:"bookmarked"`
	Rejected   bool `json:"rejected"`
}

// ActiveSpeaker pairs a speaker with its annotations.
type ActiveSpeaker struct {
	Speaker     program.Speaker    `json:"speaker"`
	Annotations SpeakerAnnotations `json:"annotations"`
}

// SessionAnnotations are the computed fields attached to a session.
type SessionAnnotations struct {
	Bookmarked        bool `json:"bookmarked"`
	Rejected          bool `json:"rejected"`
	SpeakerBookmarked bool `json:"speakerBookmarked"`
	// Hidden is set when the session is absent from the active view, either
	// rejected itself or presented by a rejected top speaker.
	Hidden           bool               `json:"hidden"`
	SpeakerPositions []program.Position `json:"speakerPositions"`
	Speakers         []program.Speaker  `json:"speakers"`
}

// ActiveSession pairs a session with its annotations.
type ActiveSession struct {
	Session     program.Session    `json:"session"`
	Annotations SessionAnnotations `json:"annotations"`
}

// IsBookmarked reports a direct bookmark or a bookmark on one of the speakers.
func (s ActiveSession) IsBookmarked() bool {
	return s.Annotations.Bookmarked || s.Annotations.SpeakerBookmarked
}

// DeriveActiveSpeakers drops rejected speakers and flags bookmarked ones.
func DeriveActiveSpeakers(speakers []program.Speaker, state bookmarks.State) []ActiveSpeaker {
	out := make([]ActiveSpeaker, 0, len(speakers))
	for _, speaker := range AnnotateSpeakers(speakers, state) {
		if speaker.Annotations.Rejected {
			continue
		}
		out = append(out, speaker)
	}
	return out
}

// AnnotateSpeakers annotates every speaker, rejected ones included.
func AnnotateSpeakers(speakers []program.Speaker, state bookmarks.State) []ActiveSpeaker {
	out := make([]ActiveSpeaker, 0, len(speakers))
	for _, speaker := range speakers {
		out = append(out, ActiveSpeaker{
			Speaker: cloneSpeaker(speaker),
			Annotations: SpeakerAnnotations{
				Bookmarked: state.IsBookmarked(bookmarks.KindSpeaker, speaker.ID),
				Rejected:   state.IsRejected(bookmarks.KindSpeaker, speaker.ID),
			},
		})
	}
	return out
}

// DeriveActiveSessions drops rejected sessions and sessions given by a
// rejected top speaker. Rejecting a speaker who is not a top speaker hides
// none of their sessions. Speaker ids missing from speakers are ignored.
func DeriveActiveSessions(sessions []program.Session, speakers []program.Speaker, state bookmarks.State) []ActiveSession {
	out := make([]ActiveSession, 0, len(sessions))
	for _, session := range AnnotateSessions(sessions, speakers, state) {
		if session.Annotations.Hidden {
			continue
		}
		out = append(out, session)
	}
	return out
}

// AnnotateSessions annotates every session, hidden ones included.
func AnnotateSessions(sessions []program.Session, speakers []program.Speaker, state bookmarks.State) []ActiveSession {
	index := program.IndexSpeakers(speakers)

	out := make([]ActiveSession, 0, len(sessions))
	for _, session := range sessions {
		annotations := SessionAnnotations{
			Bookmarked:       state.IsBookmarked(bookmarks.KindSession, session.ID),
			Rejected:         state.IsRejected(bookmarks.KindSession, session.ID),
			SpeakerPositions: []program.Position{},
			Speakers:         []program.Speaker{},
		}
		annotations.Hidden = annotations.Rejected

		seenPositions := make(map[program.Position]struct{})
		for _, id := range session.Speakers {
			speaker, ok := index[id]
			if !ok {
				continue
			}
			annotations.Speakers = append(annotations.Speakers, cloneSpeaker(speaker))

			if state.IsBookmarked(bookmarks.KindSpeaker, id) {
				annotations.SpeakerBookmarked = true
			}
			if speaker.IsTopSpeaker && state.IsRejected(bookmarks.KindSpeaker, id) {
				annotations.Hidden = true
			}
			for _, position := range speaker.Position {
				if _, dup := seenPositions[position]; dup {
					continue
				}
				seenPositions[position] = struct{}{}
				annotations.SpeakerPositions = append(annotations.SpeakerPositions, position)
			}
		}

		out = append(out, ActiveSession{Session: cloneSession(session), Annotations: annotations})
	}
	return out
}

// PersonalView is what the attendee has picked: bookmarked speakers and the
// sessions bookmarked directly or through one of their speakers.
type PersonalView struct {
	Speakers []ActiveSpeaker `json:"speakers"`
	Sessions []ActiveSession `json:"sessions"`
}

// Personal selects the bookmarked entries of the active views.
func Personal(speakers []ActiveSpeaker, sessions []ActiveSession) PersonalView {
	personal := PersonalView{Speakers: []ActiveSpeaker{}, Sessions: []ActiveSession{}}
	for _, speaker := range speakers {
		if speaker.Annotations.Bookmarked {
			personal.Speakers = append(personal.Speakers, speaker)
		}
	}
	for _, session := range sessions {
		if session.IsBookmarked() {
			personal.Sessions = append(personal.Sessions, session)
		}
	}
	return personal
}

func cloneSpeaker(speaker program.Speaker) program.Speaker {
	speaker.Links = append([]program.Link(nil), speaker.Links...)
	speaker.Sessions = append([]string(nil), speaker.Sessions...)
	speaker.Position = append([]program.Position(nil), speaker.Position...)
	return speaker
}

func cloneSession(session program.Session) program.Session {
	session.Speakers = append([]string(nil), session.Speakers...)
	return session
}
