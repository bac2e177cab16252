package domain_test

import (
	"testing"
	"time"

	"github.com/alex010501/TasksTracking/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func TestScore_IncompleteEarnsNothing(t *testing.T) {
	got := domain.Score(day("2024-01-01"), day("2024-01-11"), nil, 4)
	if got != 0 {
		t.Errorf("Score = %d, want 0 for an incomplete task", got)
	}
}

func TestScore_OnTimeEarnsFullDifficulty(t *testing.T) {
	tests := []struct {
		name      string
		completed string
	}{
		{"well before deadline", "2024-01-03"},
		{"exactly on deadline", "2024-01-11"},
		{"same day as created", "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.Score(day("2024-01-01"), day("2024-01-11"), dayPtr(tt.completed), 4)
			if got != 4 {
				t.Errorf("Score = %d, want full difficulty 4", got)
			}
		})
	}
}

func TestScore_LateCompletionProrates(t *testing.T) {
	// 10 planned days, 20 actual days, difficulty 4 → floor(4*10/20) = 2.
	got := domain.Score(day("2024-01-01"), day("2024-01-11"), dayPtr("2024-01-21"), 4)
	if got != 2 {
		t.Errorf("Score = %d, want 2", got)
	}
}

func TestScore_ProrationFloors(t *testing.T) {
	// 10 planned, 15 actual, difficulty 2 → floor(2*10/15) = 1.
	got := domain.Score(day("2024-01-01"), day("2024-01-11"), dayPtr("2024-01-16"), 2)
	if got != 1 {
		t.Errorf("Score = %d, want 1", got)
	}
}

func TestScore_DegenerateWindows(t *testing.T) {
	tests := []struct {
		name      string
		deadline  string
		completed string
	}{
		// planned = 0 with a late completion: nothing to prorate against.
		{"zero planned duration", "2024-01-01", "2024-01-05"},
		// planned < 0: deadline precedes creation in bad stored data.
		{"negative planned duration", "2023-12-30", "2024-01-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.Score(day("2024-01-01"), day(tt.deadline), dayPtr(tt.completed), 4)
			if got != 0 {
				t.Errorf("Score = %d, want 0", got)
			}
		})
	}
}

func TestScore_CompletedBeforeCreated(t *testing.T) {
	// actual < 0 but actual <= planned, so the full-credit branch applies.
	got := domain.Score(day("2024-01-10"), day("2024-01-20"), dayPtr("2024-01-05"), 4)
	if got != 4 {
		t.Errorf("Score = %d, want 4", got)
	}
}

func TestScore_MonotoneNonIncreasingPastDeadline(t *testing.T) {
	created := day("2024-01-01")
	deadline := day("2024-01-11")
	prev := domain.Score(created, deadline, &deadline, 4)
	for days := 1; days <= 60; days++ {
		completed := deadline.AddDate(0, 0, days)
		got := domain.Score(created, deadline, &completed, 4)
		if got > prev {
			t.Fatalf("score increased from %d to %d at +%d days late", prev, got, days)
		}
		prev = got
	}
}

func TestTask_Score(t *testing.T) {
	task := &domain.Task{
		CreatedDate:   day("2024-01-01"),
		Deadline:      day("2024-01-11"),
		CompletedDate: dayPtr("2024-01-21"),
		Difficulty:    4,
		Status:        domain.StatusDone,
	}
	if got := task.Score(); got != 2 {
		t.Errorf("Task.Score = %d, want 2", got)
	}
}
