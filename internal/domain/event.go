package domain

import "time"

// EventKind labels a lifecycle event on the event bus.
type EventKind string

const (
	EventTaskCreated    EventKind = "task.created"
	EventTaskCompleted  EventKind = "task.completed"
	EventTaskOverdue    EventKind = "task.overdue"
	EventProjectCreated EventKind = "project.created"
	EventProjectOverdue EventKind = "project.overdue"
)

// Event is the message published to the events topic whenever a task or
// project changes lifecycle state. Executor IDs ride along so the notifier
// can address the people responsible without a lookup.
type Event struct {
	ID          string     `json:"id"`
	Kind        EventKind  `json:"kind"`
	TaskID      *int64     `json:"task_id,omitempty"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	Name        string     `json:"name"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	ExecutorIDs []int64    `json:"executor_ids,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}
