package scheduler

import (
	"testing"

	"github.com/example/program-explorer/internal/bookmarks"
	"github.com/example/program-explorer/internal/program"
	"github.com/example/program-explorer/internal/testfixtures"
	"github.com/example/program-explorer/internal/view"
)

func active(sessions ...program.Session) []view.ActiveSession {
	return view.DeriveActiveSessions(sessions, nil, bookmarks.State{})
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sessions []program.Session
		want     []Conflict
	}{
		{
			name: "back to back sessions do not conflict",
			sessions: []program.Session{
				testfixtures.NewSession("a", testfixtures.At(0, "09:00"), testfixtures.At(0, "10:00")),
				testfixtures.NewSession("b", testfixtures.At(0, "10:00"), testfixtures.At(0, "11:00")),
			},
			want: []Conflict{},
		},
		{
			name: "overlap across rooms is reported once, earliest first",
			sessions: []program.Session{
				testfixtures.NewSession("late", testfixtures.At(0, "10:30"), testfixtures.At(0, "11:15"), testfixtures.WithRoom("r2", "Workshop A")),
				testfixtures.NewSession("early", testfixtures.At(0, "10:00"), testfixtures.At(0, "10:45"), testfixtures.WithRoom("r1", "Keynote Hall")),
			},
			want: []Conflict{{SessionID: "early", WithSessionID: "late", Type: ConflictTypeTime, OverlapMinutes: 15}},
		},
		{
			name: "same room overlap",
			sessions: []program.Session{
				testfixtures.NewSession("a", testfixtures.At(0, "09:00"), testfixtures.At(0, "12:00"), testfixtures.WithRoom("r1", "Keynote Hall")),
				testfixtures.NewSession("b", testfixtures.At(0, "10:00"), testfixtures.At(0, "11:00"), testfixtures.WithRoom("r1", "Keynote Hall")),
				testfixtures.NewSession("c", testfixtures.At(0, "11:30"), testfixtures.At(0, "13:00"), testfixtures.WithRoom("r2", "Workshop A")),
			},
			want: []Conflict{
				{SessionID: "a", WithSessionID: "b", Type: ConflictTypeRoom, OverlapMinutes: 60},
				{SessionID: "a", WithSessionID: "c", Type: ConflictTypeTime, OverlapMinutes: 30},
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := DetectConflicts(active(tc.sessions...))
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d conflicts, got %+v", len(tc.want), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("conflict %d: expected %+v, got %+v", i, tc.want[i], got[i])
				}
			}
		})
	}
}
