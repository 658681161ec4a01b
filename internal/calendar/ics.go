package calendar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/example/program-explorer/internal/program"
)

const (
	icsProductID  = "-//Conference App//Calendar//EN"
	icsUIDDomain  = "conference.app"
	icsTimeLayout = "20060102T150405Z"
	icsLineLimit  = 75
)

// ICSFileName names a calendar export written at now.
func ICSFileName(now time.Time) string {
	return "conference-sessions-" + now.Format("2006-01-02") + ".ics"
}

// EventUID is the stable identifier a session gets in exported calendars.
// Re-exporting the same session yields the same UID, so calendar
// applications update the entry instead of duplicating it.
func EventUID(sessionID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("session-"+sessionID)).String() + "@" + icsUIDDomain
}

// WriteICS writes sessions as an iCalendar document. now is used as DTSTAMP.
func WriteICS(w io.Writer, sessions []program.Session, now time.Time) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		writeFolded(bw, fmt.Sprintf(format, args...))
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", icsProductID)
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")

	stamp := now.UTC().Format(icsTimeLayout)
	for _, session := range sessions {
		line("BEGIN:VEVENT")
		line("UID:%s", EventUID(session.ID))
		line("DTSTAMP:%s", stamp)
		line("DTSTART:%s", session.StartsAt.UTC().Format(icsTimeLayout))
		line("DTEND:%s", session.EndsAt.UTC().Format(icsTimeLayout))
		line("SUMMARY:%s", EscapeText(session.Title))
		line("DESCRIPTION:%s", eventDescription(session))
		line("LOCATION:%s", EscapeText(session.Room))
		line("STATUS:CONFIRMED")
		line("TRANSP:OPAQUE")
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	return bw.Flush()
}

// EscapeText escapes an iCalendar TEXT value.
func EscapeText(text string) string {
	return textEscaper.Replace(text)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	";", `\;`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", "",
)

func eventDescription(session program.Session) string {
	parts := []string{
		EscapeText(session.Description),
		"Track: " + EscapeText(orNA(session.Track)),
		"Level: " + EscapeText(orNA(session.Level)),
		"Scope: " + EscapeText(orNA(session.Scope)),
		"Format: " + EscapeText(orNA(session.Format)),
	}
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, `\n\n`)
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

// writeFolded ends content with CRLF, folding it into lines of at most 75
// octets. Continuation lines start with a single space. Folds never split a
// valid UTF-8 sequence; invalid bytes are cut at the octet limit.
func writeFolded(w *bufio.Writer, content string) {
	limit := icsLineLimit
	for len(content) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		if cut == 0 {
			// no rune start within the line, so the bytes are not valid UTF-8
			cut = limit
		}
		w.WriteString(content[:cut])
		w.WriteString("\r\n ")
		content = content[cut:]
		// the leading space counts against the next line
		limit = icsLineLimit - 1
	}
	w.WriteString(content)
	w.WriteString("\r\n")
}
