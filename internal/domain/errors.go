package domain

import "fmt"

// NotFoundError is returned when an entity ID does not exist.
type NotFoundError struct {
	Kind string // "employee", "project", "stage", "task"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}

// ValidationError is returned when a create or update call carries a field
// the engine cannot accept.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StageMismatchError is returned when a task references a stage that does
// not belong to the task's project.
type StageMismatchError struct {
	StageID   int64
	ProjectID int64
}

func (e *StageMismatchError) Error() string {
	return fmt.Sprintf("stage %d does not belong to project %d", e.StageID, e.ProjectID)
}

// UnknownChannelError is returned when no notifier is registered for a
// delivery channel.
type UnknownChannelError struct {
	Channel string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("no notifier registered for channel %q", e.Channel)
}
