// Package program models the static conference dataset: rooms, speakers and
// sessions as produced by the offline data preparation step.
package program

import (
	"strings"
	"time"
)

// Position is a seniority tag attached to a speaker by the enrichment step.
type Position string

const (
	PositionCEO            Position = "CEO"
	PositionCTO            Position = "CTO"
	PositionFounderLower   Position = "founder"
	PositionDirector       Position = "Director/Head of Department"
	PositionVP             Position = "VP"
	PositionSeniorEngineer Position = "Senior Engineer"
	PositionEngineer       Position = "Engineer"
	PositionFounder        Position = "Founder"
	PositionProductManager Position = "Product Manager/Lead"
	PositionOtherHighLevel Position = "Other High-Level"
	PositionOtherMidLevel  Position = "Other Mid-Level"
	PositionOtherLowLevel  Position = "Other Low-Level"
)

// IndependentCompany is displayed for sessions without any known company.
const IndependentCompany = "Independent"

// Room is a venue location sessions are scheduled in.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sort int    `json:"sort"`
}

// Link is an outbound link listed on a speaker profile.
type Link struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	LinkType string `json:"linkType"`
}

// Speaker is a conference speaker including the enrichment fields.
type Speaker struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	FullName       string     `json:"fullName"`
	Bio            string     `json:"bio"`
	TagLine        string     `json:"tagLine"`
	ProfilePicture string     `json:"profilePicture"`
	IsTopSpeaker   bool       `json:"isTopSpeaker"`
	Links          []Link     `json:"links"`
	Sessions       []string   `json:"sessions"`
	Company        string     `json:"company"`
	Title          string     `json:"title"`
	Position       []Position `json:"position"`
	Field          string     `json:"field"`
}

// DisplayName returns the full name, falling back to first and last name.
func (s Speaker) DisplayName() string {
	if name := strings.TrimSpace(s.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Session is a scheduled talk, workshop or keynote.
type Session struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartsAt         time.Time `json:"startsAt"`
	EndsAt           time.Time `json:"endsAt"`
	IsPlenumSession  bool      `json:"isPlenumSession"`
	IsServiceSession bool      `json:"isServiceSession"`
	Speakers         []string  `json:"speakers"`
	RoomID           string    `json:"roomId"`
	LiveURL          string    `json:"liveUrl"`
	RecordingURL     string    `json:"recordingUrl"`
	Status           string    `json:"status"`
	Format           string    `json:"Session Format"`
	Level            string    `json:"Level"`
	Scope            string    `json:"Scope"`
	Track            string    `json:"Assigned Track"`
	Room             string    `json:"Room"`
	Companies        string    `json:"Companies"`
	CompanyDomains   string    `json:"Company Domains"`
}

// CompanyList splits the comma separated company column into trimmed names.
func (s Session) CompanyList() []string {
	return splitList(s.Companies)
}

// DomainList splits the comma separated company domain column.
func (s Session) DomainList() []string {
	return splitList(s.CompanyDomains)
}

// Dataset is the complete static program. It is loaded once and never mutated.
type Dataset struct {
	Rooms    []Room    `json:"rooms"`
	Sessions []Session `json:"sessions"`
	Speakers []Speaker `json:"speakers"`

	// Fingerprint identifies the raw document the dataset was decoded from.
	Fingerprint string `json:"-"`
}

// SpeakerIndex maps speaker ids to speakers.
func (d *Dataset) SpeakerIndex() map[string]Speaker {
	return IndexSpeakers(d.Speakers)
}

// Speaker returns the speaker with the given id.
func (d *Dataset) Speaker(id string) (Speaker, bool) {
	for _, speaker := range d.Speakers {
		if speaker.ID == id {
			return speaker, true
		}
	}
	return Speaker{}, false
}

// Session returns the session with the given id.
func (d *Dataset) Session(id string) (Session, bool) {
	for _, session := range d.Sessions {
		if session.ID == id {
			return session, true
		}
	}
	return Session{}, false
}

// IndexSpeakers maps speaker ids to speakers. Later duplicates win.
func IndexSpeakers(speakers []Speaker) map[string]Speaker {
	index := make(map[string]Speaker, len(speakers))
	for _, speaker := range speakers {
		index[speaker.ID] = speaker
	}
	return index
}

// SessionCompany names the companies presenting a session. The session's own
// company column wins unless it is empty or "unknown"; otherwise the distinct
// known companies of its speakers are used, and "Independent" when none remain.
func SessionCompany(session Session, speakers map[string]Speaker) string {
	if companies := strings.TrimSpace(session.Companies); companies != "" && !strings.EqualFold(companies, "unknown") {
		return companies
	}

	seen := make(map[string]struct{})
	names := make([]string, 0, len(session.Speakers))
	for _, id := range session.Speakers {
		speaker, ok := speakers[id]
		if !ok {
			continue
		}
		company := strings.TrimSpace(speaker.Company)
		if company == "" || strings.EqualFold(company, "unknown") {
			continue
		}
		if _, dup := seen[company]; dup {
			continue
		}
		seen[company] = struct{}{}
		names = append(names, company)
	}
	if len(names) == 0 {
		return IndependentCompany
	}
	return strings.Join(names, ", ")
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
