package domain

import "time"

// Score computes the score a task earns from its dates and difficulty.
//
// Completion at or before the planned duration earns the full difficulty.
// A late completion earns floor(difficulty * planned / actual), so credit
// decays in proportion to the overrun. Incomplete tasks earn nothing, and
// so do degenerate planning windows (zero or negative durations), where
// prorating would divide nonsense by nonsense.
//
// Score is pure: identical inputs always yield identical output. Difficulty
// must be validated as a positive integer at the boundary; the formula does
// not reject a bad value here.
func Score(created, deadline time.Time, completed *time.Time, difficulty int) int {
	if completed == nil {
		return 0
	}
	planned := DaysBetween(created, deadline)
	actual := DaysBetween(created, *completed)
	if actual <= planned {
		return difficulty
	}
	if planned <= 0 || actual <= 0 {
		return 0
	}
	// Both operands positive, so integer division floors.
	return difficulty * planned / actual
}
