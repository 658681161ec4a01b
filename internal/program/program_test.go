package program

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"
)

const sampleDocument = `{
  "rooms": [{"id": "r1", "name": "Keynote Hall", "sort": 1}],
  "sessions": [
    {
      "id": "s1",
      "title": "Opening",
      "description": "Welcome",
      "startsAt": "2025-06-03T09:00:00",
      "endsAt": "2025-06-03T09:30:00",
      "speakers": ["sp1", "ghost"],
      "roomId": "r1",
      "Session Format": "Keynote",
      "Level": "Beginner",
      "Scope": "Broad",
      "Assigned Track": "Keynotes",
      "Room": "Keynote Hall",
      "Companies": " Acme ,  , Globex",
      "Company Domains": "acme.com"
    },
    {
      "id": "s2",
      "title": "Late night",
      "startsAt": "2025-06-03T23:30:00Z",
      "endsAt": "2025-06-04T08:00:00Z",
      "speakers": []
    }
  ],
  "speakers": [
    {"id": "sp1", "fullName": "Ada Lovelace", "company": "Acme", "isTopSpeaker": true, "position": ["CTO"]}
  ]
}`

func mustLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return loc
}

func TestDecode(t *testing.T) {
	t.Parallel()

	loc := mustLocation(t)
	dataset, err := Decode([]byte(sampleDocument), loc)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	if len(dataset.Sessions) != 2 || len(dataset.Speakers) != 1 || len(dataset.Rooms) != 1 {
		t.Fatalf("unexpected collection sizes: %d sessions, %d speakers, %d rooms", len(dataset.Sessions), len(dataset.Speakers), len(dataset.Rooms))
	}

	opening := dataset.Sessions[0]
	if got := opening.StartsAt.In(loc).Format("15:04"); got != "09:00" {
		t.Fatalf("expected naive timestamp read as local 09:00, got %s", got)
	}
	if opening.Track != "Keynotes" || opening.Format != "Keynote" {
		t.Fatalf("expected dataset columns to decode, got track %q format %q", opening.Track, opening.Format)
	}
	if got := opening.CompanyList(); len(got) != 2 || got[0] != "Acme" || got[1] != "Globex" {
		t.Fatalf("expected trimmed company list, got %v", got)
	}
	if dataset.Fingerprint != Fingerprint([]byte(sampleDocument)) || len(dataset.Fingerprint) != 64 {
		t.Fatalf("unexpected fingerprint %q", dataset.Fingerprint)
	}

	if _, ok := dataset.Session("s2"); !ok {
		t.Fatalf("expected session lookup to succeed")
	}
	if _, ok := dataset.Speaker("ghost"); ok {
		t.Fatalf("expected unknown speaker lookup to fail")
	}
}

func TestDecode_RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":       `{"sessions": [`,
		"bad timestamp":  `{"sessions": [{"id": "s1", "startsAt": "tomorrow", "endsAt": "2025-06-03T10:00:00"}]}`,
		"missing endsAt": `{"sessions": [{"id": "s1", "startsAt": "2025-06-03T10:00:00"}]}`,
	}
	for name, doc := range cases {
		doc := doc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode([]byte(doc), time.UTC); !errors.Is(err, ErrLoadFailed) {
				t.Fatalf("expected ErrLoadFailed, got %v", err)
			}
		})
	}
}

func TestLoader_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fullData.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o600); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}

	loader := NewLoader(LoaderConfig{Source: path, Location: time.UTC}, nil)
	first, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove dataset: %v", err)
	}
	second, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("expected memoized dataset after source removal, got %v", err)
	}
	if first != second {
		t.Fatalf("expected the same dataset instance on repeated loads")
	}
}

func TestLoader_Remote(t *testing.T) {
	t.Parallel()

	t.Run("concurrent callers share one fetch", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(sampleDocument))
		}))
		defer server.Close()

		loader := NewLoader(LoaderConfig{Source: server.URL, Location: time.UTC, Client: server.Client()}, nil)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := loader.Load(context.Background()); err != nil {
					t.Errorf("Load returned error: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := hits.Load(); got != 1 {
			t.Fatalf("expected exactly one fetch, got %d", got)
		}
	})

	t.Run("non-success status is memoized as failure", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		loader := NewLoader(LoaderConfig{Source: server.URL, Client: server.Client()}, nil)
		for i := 0; i < 2; i++ {
			if _, err := loader.Load(context.Background()); !errors.Is(err, ErrLoadFailed) {
				t.Fatalf("expected ErrLoadFailed, got %v", err)
			}
		}
		if got := hits.Load(); got != 1 {
			t.Fatalf("expected failure to be memoized without retry, got %d fetches", got)
		}
	})
}

func TestSessionCompany(t *testing.T) {
	t.Parallel()

	speakers := IndexSpeakers([]Speaker{
		{ID: "a", Company: "Acme"},
		{ID: "b", Company: "unknown"},
		{ID: "c", Company: "Acme"},
		{ID: "d", Company: "Globex"},
	})

	tests := []struct {
		name    string
		session Session
		want    string
	}{
		{name: "own column wins", session: Session{Companies: "Initech", Speakers: []string{"a"}}, want: "Initech"},
		{name: "unknown column falls back to speakers", session: Session{Companies: "Unknown", Speakers: []string{"a", "b", "c", "d"}}, want: "Acme, Globex"},
		{name: "no known company", session: Session{Speakers: []string{"b", "missing"}}, want: IndependentCompany},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := SessionCompany(tc.session, speakers); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                     "",
		"acme.com":             "https://acme.com",
		"  example.org/path  ": "https://example.org/path",
		"http://plain.test":    "http://plain.test",
		"HTTPS://upper.test":   "HTTPS://upper.test",
	}
	for input, want := range tests {
		if got := NormalizeURL(input); got != want {
			t.Fatalf("NormalizeURL(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestDayLabel(t *testing.T) {
	t.Parallel()

	loc := mustLocation(t)
	start := time.Date(2025, 6, 3, 9, 0, 0, 0, loc)

	if got := DayLabel(start, start.Add(time.Hour), loc); got != "Tuesday" {
		t.Fatalf("expected Tuesday, got %s", got)
	}
	if got := DayLabel(start, start.Add(24*time.Hour), loc); got != MultiDay {
		t.Fatalf("expected %s, got %s", MultiDay, got)
	}
	if got := TimeRangeLabel(start, start.Add(45*time.Minute), loc); got != "9:00 AM - 9:45 AM" {
		t.Fatalf("unexpected time range label %q", got)
	}
}
