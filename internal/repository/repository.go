package repository

import (
	"time"

	"github.com/mtsuji/kanban-board-api/internal/models"
)

// TaskRepository defines the interface for task data access. It carries no
// business rules: position/stack writes are primitives for the reconciler and
// the lifecycle service to compose.
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListPartition returns the published tasks of a (board, stack) partition
	// in canonical order: pinned DESC, position ASC, updated_at DESC.
	ListPartition(boardID uint64, stack models.Stack, excludeID uint64) ([]models.Task, error)

	// Update persists a task. The position column is never written through
	// this path; only the reconciler and the move operation touch it.
	Update(task *models.Task) error

	// SetBoard moves a task to another board without bumping updated_at.
	SetBoard(taskID, boardID uint64) error

	// SetStack moves a task to another stack without bumping updated_at.
	SetStack(taskID uint64, stack models.Stack) error

	// SetPosition writes an explicit position, bumping updated_at so the
	// moved task wins the recency tiebreak on its new slot.
	SetPosition(taskID uint64, position int) error

	// SetStatus flips a task's status (publish/archive).
	SetStatus(taskID uint64, status models.TaskStatus) error

	// Delete soft deletes a task and its assignments
	Delete(id uint64) error

	// ReplaceAssignments replaces the assignee list, keeping list order in
	// the ordinal column.
	ReplaceAssignments(taskID uint64, userIDs []uint64) error

	// ReplaceLabels replaces the task's label set
	ReplaceLabels(taskID uint64, labelIDs []uint64) error

	// PlanDay marks the task as planned for a user on a calendar day
	PlanDay(taskID, userID uint64, day string) error

	// UnplanDay removes a planned day mark
	UnplanDay(taskID, userID uint64, day string) error

	// ListPlanned lists the tasks a user planned for a day
	ListPlanned(userID uint64, day string) ([]models.Task, error)

	// CountUsersByIDs counts how many of the given user IDs exist
	CountUsersByIDs(userIDs []uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	BoardID        *uint64
	Stack          *models.Stack
	Status         *models.TaskStatus
	CreatorID      *uint64
	AssignedUserID *uint64
	DueDateFrom    *time.Time
	DueDateTo      *time.Time
	Page           int
	PageSize       int
}

// BoardRepository defines the interface for board data access
type BoardRepository interface {
	// Create creates a new board
	Create(board *models.Board) error

	// FindByID finds a board by ID
	FindByID(id uint64) (*models.Board, error)

	// FindBySlug finds a board by slug
	FindBySlug(slug string) (*models.Board, error)

	// List lists boards, optionally only those visible in the boards view
	List(visibleOnly bool) ([]models.Board, error)

	// Update updates a board
	Update(board *models.Board) error

	// Delete deletes a board
	Delete(id uint64) error

	// Exists reports whether a board exists
	Exists(id uint64) (bool, error)
}

// LabelRepository defines the interface for label data access
type LabelRepository interface {
	Create(label *models.Label) error
	FindByID(id uint64) (*models.Label, error)
	FindByIDs(ids []uint64) ([]models.Label, error)
	List() ([]models.Label, error)
	Update(label *models.Label) error
	Delete(id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}
