package domain

import "time"

// EmployeeStatus is an employee's lifecycle state. Employees are never
// physically deleted; TERMINATED is the soft end of the record.
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "ACTIVE"
	EmployeeOnLeave    EmployeeStatus = "ON_LEAVE"
	EmployeeTerminated EmployeeStatus = "TERMINATED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s EmployeeStatus) Valid() bool {
	return s == EmployeeActive || s == EmployeeOnLeave || s == EmployeeTerminated
}

// EmployeeScore pairs an employee with a score computed over some window,
// as returned by the top-N ranking.
type EmployeeScore struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
}

// Employee is a member of the department who can execute tasks.
// StatusStart/StatusEnd bound the current lifecycle state when it is
// temporary (a leave window, a notice period).
type Employee struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Position    string         `json:"position,omitempty"`
	StartDate   time.Time      `json:"start_date"`
	Status      EmployeeStatus `json:"status"`
	StatusStart *time.Time     `json:"status_start,omitempty"`
	StatusEnd   *time.Time     `json:"status_end,omitempty"`
}
