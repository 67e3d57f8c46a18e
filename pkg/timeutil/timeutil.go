// Package timeutil provides UTC day arithmetic for streak accounting.
// All streak boundaries are computed against UTC calendar days so that a
// learner's streak behaves identically regardless of server timezone.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// StartOfDay returns the start of the UTC day (00:00:00) containing t.
func StartOfDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the UTC day (23:59:59.999999999) containing t.
func EndOfDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 23, 59, 59, 999999999, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// IsPreviousDay reports whether a falls on the UTC calendar day
// immediately before the day containing b.
func IsPreviousDay(a, b time.Time) bool {
	return StartOfDay(a).AddDate(0, 0, 1).Equal(StartOfDay(b))
}

// DaysBetween returns the number of whole UTC calendar days between a
// and b. The result is negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)) / (24 * time.Hour))
}

// StreakCutoff returns the moment before which a learner's last activity
// breaks their streak: the start of the previous UTC day relative to now.
// A learner active yesterday or today keeps their streak.
func StreakCutoff(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, -1)
}
