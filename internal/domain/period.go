package domain

import (
	"strings"
	"time"
)

// Window is an inclusive calendar-date range. A nil bound leaves that side
// open; filters only apply date logic when both bounds are present.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Bounded reports whether both ends of the window are set.
func (w Window) Bounded() bool {
	return w.From != nil && w.To != nil
}

// EffectiveEnd resolves the date compared against a window's lower bound
// when deciding whether an item was active in a period. It is a derived
// value used only for overlap tests, never a stored end date.
//
//	IN_PROGRESS     → the deadline (today when there is none)
//	OVERDUE         → today: the item is still running through the present
//	DONE or unknown → the later of deadline and completion date, today
//	                  when either is missing
func EffectiveEnd(status Status, deadline, completed *time.Time, today time.Time) time.Time {
	switch status {
	case StatusInProgress:
		if deadline != nil {
			return *deadline
		}
		return today
	case StatusOverdue:
		return today
	default:
		if deadline != nil && completed != nil {
			return maxDate(*deadline, *completed)
		}
		return today
	}
}

// EffectiveEnd resolves the task's end date for window-overlap tests.
func (t *Task) EffectiveEnd(today time.Time) time.Time {
	d := t.Deadline
	return EffectiveEnd(t.Status, &d, t.CompletedDate, today)
}

// EffectiveEnd resolves the project's end date for window-overlap tests.
func (p *Project) EffectiveEnd(today time.Time) time.Time {
	return EffectiveEnd(p.Status, p.Deadline, p.CompletedDate, today)
}

// ActiveIn reports whether the task was active at any point inside w.
func (t *Task) ActiveIn(w Window, today time.Time) bool {
	if !w.Bounded() {
		return true
	}
	return overlaps(t.CreatedDate, t.EffectiveEnd(today), *w.From, *w.To)
}

// ActiveIn reports whether the project was active at any point inside w.
func (p *Project) ActiveIn(w Window, today time.Time) bool {
	if !w.Bounded() {
		return true
	}
	return overlaps(p.CreatedDate, p.EffectiveEnd(today), *w.From, *w.To)
}

// overlaps is the interval test shared by tasks and projects: created no
// later than the window's upper bound, effective end no earlier than its
// lower bound.
func overlaps(created, effectiveEnd, from, to time.Time) bool {
	if DateOnly(created).After(DateOnly(to)) {
		return false
	}
	return !DateOnly(effectiveEnd).Before(DateOnly(from))
}

// FilterTasks returns the tasks active in w, preserving input order. An
// unbounded window passes everything through.
func FilterTasks(tasks []*Task, w Window, today time.Time) []*Task {
	if !w.Bounded() {
		return tasks
	}
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ActiveIn(w, today) {
			out = append(out, t)
		}
	}
	return out
}

// FilterProjects returns the projects active in w, preserving input order.
func FilterProjects(projects []*Project, w Window, today time.Time) []*Project {
	if !w.Bounded() {
		return projects
	}
	out := make([]*Project, 0, len(projects))
	for _, p := range projects {
		if p.ActiveIn(w, today) {
			out = append(out, p)
		}
	}
	return out
}

// MatchesName reports a case-insensitive substring match. An empty query
// matches everything.
func MatchesName(name, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}
