package program

import (
	"strings"
	"time"
)

// MultiDay labels sessions whose start and end fall on different local dates.
const MultiDay = "MULTIDAY"

// NormalizeURL prefixes https:// when the link carries no http(s) scheme.
// Nothing else about the link is checked.
func NormalizeURL(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return link
	}
	return "https://" + link
}

// DayLabel names the local weekday a session runs on, or MultiDay.
func DayLabel(start, end time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	start, end = start.In(loc), end.In(loc)
	if !sameDate(start, end) {
		return MultiDay
	}
	return start.Weekday().String()
}

// TimeRangeLabel renders "9:00 AM - 9:45 AM" in loc.
func TimeRangeLabel(start, end time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return start.In(loc).Format("3:04 PM") + " - " + end.In(loc).Format("3:04 PM")
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
