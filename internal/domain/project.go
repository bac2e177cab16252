package domain

import "time"

// Project groups tasks under a name with an optional deadline. A project
// without a deadline can never become overdue through the sweep.
type Project struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	CreatedDate   time.Time  `json:"created_date"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Status        Status     `json:"status"`
}

// Stage is an ordered step of a project; display order is insertion order.
// The project reference is immutable after creation and a stage cannot
// outlive its project.
type Stage struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
}
