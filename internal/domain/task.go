package domain

import "time"

// Status represents the lifecycle states shared by tasks and projects.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusOverdue    Status = "OVERDUE"
)

// IsTerminal reports whether the state can never revert automatically.
// DONE is reachable only through an explicit completion; OVERDUE only
// through the deadline sweep.
func (s Status) IsTerminal() bool {
	return s == StatusDone
}

// Known reports whether s is one of the three canonical states. Stored
// values outside the enumeration are treated like terminal states by the
// effective-end resolver.
func (s Status) Known() bool {
	return s == StatusInProgress || s == StatusDone || s == StatusOverdue
}

// Canonical difficulty weights. The scoring engine accepts any positive
// integer; these are the values the UI offers.
const (
	DifficultyEasy   = 1
	DifficultyMedium = 2
	DifficultyHard   = 4
)

// Task is a unit of work assigned to one or more executors, optionally
// attached to a project and one of its stages.
type Task struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	CreatedDate   time.Time  `json:"created_date"`
	Deadline      time.Time  `json:"deadline"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Difficulty    int        `json:"difficulty"`
	Status        Status     `json:"status"`
	ExecutorIDs   []int64    `json:"executor_ids"`
	ProjectID     *int64     `json:"project_id,omitempty"`
	StageID       *int64     `json:"stage_id,omitempty"`
}

// HasExecutor reports whether id belongs to the task's executor set.
func (t *Task) HasExecutor(id int64) bool {
	for _, e := range t.ExecutorIDs {
		if e == id {
			return true
		}
	}
	return false
}

// Score returns the score the task has earned so far. Zero until the task
// is completed.
func (t *Task) Score() int {
	return Score(t.CreatedDate, t.Deadline, t.CompletedDate, t.Difficulty)
}
