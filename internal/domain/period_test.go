package domain_test

import (
	"testing"
	"time"

	"github.com/alex010501/TasksTracking/internal/domain"
)

func window(from, to string) domain.Window {
	return domain.Window{From: dayPtr(from), To: dayPtr(to)}
}

func TestEffectiveEnd(t *testing.T) {
	today := day("2024-03-15")
	deadline := dayPtr("2024-02-01")
	completed := dayPtr("2024-02-10")

	tests := []struct {
		name      string
		status    domain.Status
		deadline  *time.Time
		completed *time.Time
		want      time.Time
	}{
		{"in progress uses deadline", domain.StatusInProgress, deadline, nil, *deadline},
		{"in progress without deadline falls back to today", domain.StatusInProgress, nil, nil, today},
		{"overdue runs through the present", domain.StatusOverdue, deadline, nil, today},
		{"done takes the later of deadline and completion", domain.StatusDone, deadline, completed, *completed},
		{"done with completion before deadline takes deadline", domain.StatusDone, dayPtr("2024-02-20"), completed, day("2024-02-20")},
		{"done missing completion falls back to today", domain.StatusDone, deadline, nil, today},
		{"done missing deadline falls back to today", domain.StatusDone, nil, completed, today},
		{"unknown status resolves like done", domain.Status("ARCHIVED"), deadline, completed, *completed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.EffectiveEnd(tt.status, tt.deadline, tt.completed, today)
			if !got.Equal(tt.want) {
				t.Errorf("EffectiveEnd = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_ActiveIn(t *testing.T) {
	today := day("2024-03-01")
	task := &domain.Task{
		CreatedDate: day("2024-01-01"),
		Deadline:    day("2024-01-31"),
		Status:      domain.StatusInProgress,
	}

	if !task.ActiveIn(window("2024-01-15", "2024-01-20"), today) {
		t.Error("task should be active in a window inside its lifetime")
	}
	if task.ActiveIn(window("2024-02-01", "2024-02-05"), today) {
		t.Error("task should not be active after its deadline has passed")
	}
	if !task.ActiveIn(domain.Window{}, today) {
		t.Error("an unbounded window passes everything")
	}
	if !task.ActiveIn(domain.Window{From: dayPtr("2024-02-01")}, today) {
		t.Error("a half-open window applies no date filtering")
	}
}

func TestTask_ActiveIn_OverdueRunsThroughToday(t *testing.T) {
	today := day("2024-03-01")
	task := &domain.Task{
		CreatedDate: day("2024-01-01"),
		Deadline:    day("2024-01-31"),
		Status:      domain.StatusOverdue,
	}
	// Past the deadline, but an overdue task is still considered running.
	if !task.ActiveIn(window("2024-02-01", "2024-02-05"), today) {
		t.Error("overdue task should stay active through the present")
	}
}

func TestProject_ActiveIn_NoDeadline(t *testing.T) {
	today := day("2024-03-01")
	p := &domain.Project{
		CreatedDate: day("2024-01-01"),
		Status:      domain.StatusInProgress,
	}
	// No deadline: effective end falls back to today.
	if !p.ActiveIn(window("2024-02-01", "2024-02-05"), today) {
		t.Error("deadline-less in-progress project should stay active through today")
	}
	if p.ActiveIn(window("2023-11-01", "2023-12-31"), today) {
		t.Error("project should not be active before it was created")
	}
}

func TestFilterTasks(t *testing.T) {
	today := day("2024-03-01")
	inside := &domain.Task{Name: "inside", CreatedDate: day("2024-01-01"), Deadline: day("2024-01-31"), Status: domain.StatusInProgress}
	outside := &domain.Task{Name: "outside", CreatedDate: day("2024-02-10"), Deadline: day("2024-02-20"), Status: domain.StatusInProgress}

	got := domain.FilterTasks([]*domain.Task{inside, outside}, window("2024-01-10", "2024-01-20"), today)
	if len(got) != 1 || got[0].Name != "inside" {
		t.Fatalf("FilterTasks = %v, want only %q", got, "inside")
	}

	all := domain.FilterTasks([]*domain.Task{inside, outside}, domain.Window{}, today)
	if len(all) != 2 {
		t.Fatalf("unbounded FilterTasks kept %d of 2 tasks", len(all))
	}
}

func TestFilterProjects_PreservesOrder(t *testing.T) {
	today := day("2024-03-01")
	a := &domain.Project{Name: "a", CreatedDate: day("2024-01-01"), Status: domain.StatusInProgress}
	b := &domain.Project{Name: "b", CreatedDate: day("2024-01-05"), Status: domain.StatusInProgress}

	got := domain.FilterProjects([]*domain.Project{a, b}, window("2024-01-01", "2024-12-31"), today)
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Fatalf("FilterProjects reordered or dropped items: %v", got)
	}
}

func TestMatchesName(t *testing.T) {
	tests := []struct {
		name, query string
		want        bool
	}{
		{"Quarterly report", "report", true},
		{"Quarterly report", "REPORT", true},
		{"Quarterly report", "  quarter ", true},
		{"Quarterly report", "", true},
		{"Quarterly report", "budget", false},
	}
	for _, tt := range tests {
		if got := domain.MatchesName(tt.name, tt.query); got != tt.want {
			t.Errorf("MatchesName(%q, %q) = %v, want %v", tt.name, tt.query, got, tt.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	if got := domain.DaysBetween(day("2024-01-01"), day("2024-01-11")); got != 10 {
		t.Errorf("DaysBetween = %d, want 10", got)
	}
	if got := domain.DaysBetween(day("2024-01-11"), day("2024-01-01")); got != -10 {
		t.Errorf("DaysBetween = %d, want -10", got)
	}
	// Time-of-day is ignored.
	a := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)
	if got := domain.DaysBetween(a, b); got != 1 {
		t.Errorf("DaysBetween across midnight = %d, want 1", got)
	}
}
