// Package filter applies declarative filters to the derived
// speaker and session views.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Predicate reports whether an item passes one field's constraint.
type Predicate[T any] func(T) bool

// Apply returns the items passing every predicate, in input order. The input
// slice is never modified and the result never aliases it.
func Apply[T any](items []T, predicates ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchesAll(item, predicates) {
			out = append(out, item)
		}
	}
	return out
}

func matchesAll[T any](item T, predicates []Predicate[T]) bool {
	for _, predicate := range predicates {
		if predicate != nil && !predicate(item) {
			return false
		}
	}
	return true
}

// AnyOf passes when at least one of the values is in chosen. An empty choice
// imposes no constraint and yields a nil predicate.
func AnyOf[T any, V comparable](chosen []V, values func(T) []V) Predicate[T] {
	if len(chosen) == 0 {
		return nil
	}
	set := make(map[V]struct{}, len(chosen))
	for _, value := range chosen {
		set[value] = struct{}{}
	}
	return func(item T) bool {
		for _, value := range values(item) {
			if _, ok := set[value]; ok {
				return true
			}
		}
		return false
	}
}

// OneOf is AnyOf for single valued fields.
func OneOf[T any, V comparable](chosen []V, value func(T) V) Predicate[T] {
	return AnyOf(chosen, func(item T) []V { return []V{value(item)} })
}

// ContainsFold passes when any target contains query, ignoring case. An empty
// query yields a nil predicate.
func ContainsFold[T any](query string, targets func(T) []string) Predicate[T] {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	return func(item T) bool {
		for _, target := range targets(item) {
			if strings.Contains(strings.ToLower(target), query) {
				return true
			}
		}
		return false
	}
}

// ErrInvalidClock is returned for time of day bounds not written as HH:MM.
var ErrInvalidClock = errors.New("filter: time must be HH:MM")

// Clock is a minute of the day.
type Clock int

// ParseClock parses "HH:MM" in 24 hour notation.
func ParseClock(value string) (Clock, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return Clock(parsed.Hour()*60 + parsed.Minute()), nil
}

// ClockOf returns the local time of day of t in loc.
func ClockOf(t time.Time, loc *time.Location) Clock {
	if loc != nil {
		t = t.In(loc)
	}
	return Clock(t.Hour()*60 + t.Minute())
}

// String renders the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ClockRange passes when the local time of day of instant lies within the
// given bounds, both inclusive. Empty bounds are open. Both empty yields a nil
// predicate.
func ClockRange[T any](from, to string, loc *time.Location, instant func(T) time.Time) (Predicate[T], error) {
	if strings.TrimSpace(from) == "" && strings.TrimSpace(to) == "" {
		return nil, nil
	}

	lower, upper := Clock(0), Clock(24*60-1)
	var err error
	if strings.TrimSpace(from) != "" {
		if lower, err = ParseClock(from); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if upper, err = ParseClock(to); err != nil {
			return nil, err
		}
	}

	return func(item T) bool {
		clock := ClockOf(instant(item), loc)
		return clock >= lower && clock <= upper
	}, nil
}
