package models

import (
	"time"

	"gorm.io/gorm"
)

// Stack is the workflow column a task sits in on its board.
type Stack string

const (
	StackTodo       Stack = "to-do"
	StackInProgress Stack = "in-progress"
	StackDone       Stack = "done"
)

// Stacks lists every stack in board display order.
var Stacks = []Stack{StackTodo, StackInProgress, StackDone}

// Valid reports whether s is a member of the stack enum.
func (s Stack) Valid() bool {
	switch s {
	case StackTodo, StackInProgress, StackDone:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusDraft     TaskStatus = "draft"
	TaskStatusPublished TaskStatus = "published"
	TaskStatusArchived  TaskStatus = "archived"
)

// Task is a unit of work on a board.
//
// Position is dense within the task's (board_id, stack) partition and is only
// ever written by the order reconciler or the explicit move operation. Draft
// and archived tasks do not occupy partition slots.
type Task struct {
	ID              uint64         `gorm:"primarykey" json:"id"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	Status          TaskStatus     `gorm:"type:varchar(20);not null;default:'published'" json:"status"`
	Stack           Stack          `gorm:"type:varchar(20);not null;default:'to-do'" json:"stack"`
	BoardID         uint64         `gorm:"not null;index" json:"board_id"`
	Pinned          bool           `gorm:"not null;default:false" json:"pinned"`
	Position        int            `gorm:"not null;default:0" json:"position"`
	DueDate         *time.Time     `json:"due_date"`
	CreatorID       uint64         `gorm:"not null" json:"creator_id"`
	CommentCount    int            `gorm:"not null;default:0" json:"comment_count"`
	NextcloudCardID uint64         `gorm:"not null;default:0" json:"nextcloud_card_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Board       Board            `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	Creator     User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
	Labels      []Label          `gorm:"many2many:task_labels" json:"labels,omitempty"`
}

// AssigneeIDs returns the assigned user ids in assignment order.
func (t *Task) AssigneeIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}
