package domain

import "time"

// DateOnly truncates t to its calendar day in UTC. Every comparison in the
// engine is whole-day granular.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b, negative when
// b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)) / (24 * time.Hour))
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
