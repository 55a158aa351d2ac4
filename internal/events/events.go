package events

import "github.com/mtsuji/kanban-board-api/internal/models"

// Event names form the fixed contract consumed by notification components.
const (
	NameTaskCreated     = "task_created"
	NameTaskUpdated     = "task_updated"
	NameTaskCompleted   = "task_completed"
	NameStackTransition = "stack_transition"
	NameUserAssigned    = "user_assigned"
)

// Event is a lifecycle signal emitted by the task service. Payloads are
// fixed per event name; subscribers type-assert on the concrete struct.
type Event interface {
	EventName() string
}

type TaskCreated struct {
	TaskID uint64
}

func (TaskCreated) EventName() string { return NameTaskCreated }

type TaskUpdated struct {
	TaskID uint64
}

func (TaskUpdated) EventName() string { return NameTaskUpdated }

// TaskCompleted fires in addition to StackTransition when a task enters the
// done stack.
type TaskCompleted struct {
	TaskID uint64
	Stack  models.Stack
}

func (TaskCompleted) EventName() string { return NameTaskCompleted }

// StackTransition fires once per real transition between two valid stacks.
type StackTransition struct {
	TaskID uint64
	From   models.Stack
	To     models.Stack
}

func (StackTransition) EventName() string { return NameStackTransition }

// UserAssigned fires once per user id newly added to a task's assignee list.
type UserAssigned struct {
	TaskID uint64
	UserID uint64
}

func (UserAssigned) EventName() string { return NameUserAssigned }
