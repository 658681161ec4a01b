package calendar

import (
	"fmt"
	"net/url"

	"github.com/example/program-explorer/internal/program"
)

const googleCalendarBase = "https://calendar.google.com/calendar/render"

// GoogleCalendarURL builds an "add to Google Calendar" link for session.
func GoogleCalendarURL(session program.Session) string {
	location := session.Room
	if location == "" {
		location = "TBD"
	}

	details := fmt.Sprintf("%s\n\nRoom: %s\nTrack: %s\nLevel: %s\nScope: %s",
		session.Description, session.Room, orNA(session.Track), orNA(session.Level), orNA(session.Scope))

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", session.Title)
	params.Set("details", details)
	params.Set("location", location)
	params.Set("dates", session.StartsAt.UTC().Format(icsTimeLayout)+"/"+session.EndsAt.UTC().Format(icsTimeLayout))

	return googleCalendarBase + "?" + params.Encode()
}
