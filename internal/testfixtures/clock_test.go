package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)
	clock := NewClock(start)
	nowFn := clock.NowFunc()

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}
	if got := nowFn(); !got.Equal(updated) {
		t.Fatalf("expected NowFunc to observe %v, got %v", updated, got)
	}
}

func TestAt(t *testing.T) {
	got := At(1, "10:30")
	want := time.Date(2025, time.June, 4, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSampleDatasetReferences(t *testing.T) {
	dataset := SampleDataset()
	speakers := dataset.SpeakerIndex()

	unresolved := 0
	for _, session := range dataset.Sessions {
		if !session.EndsAt.After(session.StartsAt) {
			t.Fatalf("session %s ends before it starts", session.ID)
		}
		for _, id := range session.Speakers {
			if _, ok := speakers[id]; !ok {
				unresolved++
			}
		}
	}
	if unresolved != 1 {
		t.Fatalf("expected exactly one dangling speaker reference, got %d", unresolved)
	}
}
