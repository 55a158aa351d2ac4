package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mtsuji/kanban-board-api/internal/events"
	"github.com/mtsuji/kanban-board-api/internal/models"
	"github.com/mtsuji/kanban-board-api/internal/repository"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrStackRequired     = errors.New("stack is required")
	ErrBoardRequired     = errors.New("board is required")
	ErrBoardNotFound     = errors.New("board does not exist")
	ErrTaskArchived      = errors.New("archived tasks cannot be modified")
	ErrNoUserIDsProvided = errors.New("at least one user ID is required")
	ErrInvalidAssignee   = errors.New("one or more users do not exist")
	ErrInvalidDay        = errors.New("day must be formatted YYYY-MM-DD")
)

// TaskService is the single entry point for task create/update/archive/delete.
// It enforces the validation invariants, delegates persistence to the
// repository and ordering to the reconciler, and emits each lifecycle event
// exactly once per meaningful state change.
type TaskService struct {
	taskRepo   repository.TaskRepository
	boardRepo  repository.BoardRepository
	reconciler *OrderReconciler
	bus        *events.Bus
	log        *logrus.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	boardRepo repository.BoardRepository,
	reconciler *OrderReconciler,
	bus *events.Bus,
	log *logrus.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		boardRepo:  boardRepo,
		reconciler: reconciler,
		bus:        bus,
		log:        log,
	}
}

// taskPreloads is the relation set loaded for API responses.
var taskPreloads = []string{"Creator", "Board", "Assignments", "Assignments.User", "Labels"}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID       uint64
	BoardID      *uint64
	Stack        *models.Stack
	Status       *models.TaskStatus
	AssignedToMe bool
	DueToday     bool
	Page         int
	PageSize     int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title           string
	Description     string
	Stack           models.Stack
	BoardID         uint64
	Pinned          bool
	DueDate         *time.Time
	CreatorID       uint64
	AssignedUsers   []uint64
	LabelIDs        []uint64
	Archived        bool
	Draft           bool
	NextcloudCardID uint64
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// untouched; position is never accepted here.
type UpdateTaskInput struct {
	Title           *string
	Description     *string
	Stack           *models.Stack
	BoardID         *uint64
	Pinned          *bool
	DueDate         *time.Time
	ClearDueDate    bool
	AssignedUsers   *[]uint64
	LabelIDs        *[]uint64
	CommentCount    *int
	NextcloudCardID *uint64
}

// ListTasks returns tasks matching the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		BoardID:  input.BoardID,
		Stack:    input.Stack,
		Status:   input.Status,
		Page:     input.Page,
		PageSize: input.PageSize,
	}

	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}
	if input.DueToday {
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endOfDay := startOfDay.Add(24 * time.Hour)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &endOfDay
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask validates and persists a new task. Published tasks enter their
// (board, stack) partition through the append rule; drafts and archived tasks
// take no slot. Emits task_created once on success.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.Stack == "" {
		return nil, ErrStackRequired
	}
	if !input.Stack.Valid() {
		return nil, ErrInvalidStack
	}
	if input.BoardID == 0 {
		return nil, ErrBoardRequired
	}
	exists, err := s.boardRepo.Exists(input.BoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify board: %w", err)
	}
	if !exists {
		return nil, ErrBoardNotFound
	}

	status := models.TaskStatusPublished
	switch {
	case input.Archived:
		status = models.TaskStatusArchived
	case input.Draft:
		status = models.TaskStatusDraft
	}

	position := 0
	if status == models.TaskStatusPublished {
		position, err = s.reconciler.AppendOrder(input.BoardID, input.Stack)
		if err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Status:          status,
		Stack:           input.Stack,
		BoardID:         input.BoardID,
		Pinned:          input.Pinned,
		Position:        position,
		DueDate:         input.DueDate,
		CreatorID:       input.CreatorID,
		NextcloudCardID: input.NextcloudCardID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if userIDs := uniqueUint64(input.AssignedUsers); len(userIDs) > 0 {
		if err := s.verifyUsers(userIDs); err != nil {
			return nil, err
		}
		if err := s.taskRepo.ReplaceAssignments(task.ID, userIDs); err != nil {
			return nil, fmt.Errorf("failed to assign users: %w", err)
		}
	}
	if len(input.LabelIDs) > 0 {
		if err := s.taskRepo.ReplaceLabels(task.ID, input.LabelIDs); err != nil {
			return nil, fmt.Errorf("failed to set labels: %w", err)
		}
	}

	s.bus.Publish(events.TaskCreated{TaskID: task.ID})

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// UpdateTask updates an existing task, diffing old against new state to
// decide which lifecycle events fire. Archived tasks reject every change;
// un-archiving goes through UnarchiveTask.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.Status == models.TaskStatusArchived {
		return nil, ErrTaskArchived
	}

	oldStack := task.Stack
	oldBoardID := task.BoardID
	oldAssignees := task.AssigneeIDs()

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Stack != nil {
		if !input.Stack.Valid() {
			return nil, ErrInvalidStack
		}
		task.Stack = *input.Stack
	}
	if input.BoardID != nil {
		if *input.BoardID == 0 {
			return nil, ErrBoardRequired
		}
		exists, err := s.boardRepo.Exists(*input.BoardID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify board: %w", err)
		}
		if !exists {
			return nil, ErrBoardNotFound
		}
		task.BoardID = *input.BoardID
	}
	if input.Pinned != nil {
		task.Pinned = *input.Pinned
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.CommentCount != nil {
		task.CommentCount = *input.CommentCount
	}
	if input.NextcloudCardID != nil {
		task.NextcloudCardID = *input.NextcloudCardID
	}

	partitionChanged := task.Status == models.TaskStatusPublished &&
		(task.Stack != oldStack || task.BoardID != oldBoardID)

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if partitionChanged {
		// The task appends to its new partition; both partitions it touched
		// get re-densified. Reorder failures are non-fatal by design: the
		// primary write has committed and the next write self-corrects.
		position, err := s.reconciler.AppendOrder(task.BoardID, task.Stack)
		if err != nil {
			s.log.WithError(err).WithField("task_id", task.ID).
				Error("failed to compute append order for new partition")
		} else if err := s.taskRepo.SetPosition(task.ID, position); err != nil {
			s.log.WithError(err).WithField("task_id", task.ID).
				Error("failed to append task to new partition")
		}
		_ = s.reconciler.ReorderPartition(oldBoardID, oldStack, 0)
		_ = s.reconciler.ReorderPartition(task.BoardID, task.Stack, 0)
	}

	var added []uint64
	if input.AssignedUsers != nil {
		newAssignees := uniqueUint64(*input.AssignedUsers)
		if len(newAssignees) > 0 {
			if err := s.verifyUsers(newAssignees); err != nil {
				return nil, err
			}
		}
		if err := s.taskRepo.ReplaceAssignments(task.ID, newAssignees); err != nil {
			return nil, fmt.Errorf("failed to update assignments: %w", err)
		}
		added = newlyAdded(oldAssignees, newAssignees)
	}
	if input.LabelIDs != nil {
		if err := s.taskRepo.ReplaceLabels(task.ID, *input.LabelIDs); err != nil {
			return nil, fmt.Errorf("failed to update labels: %w", err)
		}
	}

	s.emitUpdateEvents(task.ID, oldStack, task.Stack, added)

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// emitUpdateEvents fires the per-update lifecycle signals exactly once each:
// one stack_transition per real transition between two valid stacks (plus
// task_completed when the new stack is done), one user_assigned per newly
// added user in list order, and one task_updated regardless.
func (s *TaskService) emitUpdateEvents(taskID uint64, oldStack, newStack models.Stack, addedUsers []uint64) {
	if oldStack != newStack && oldStack.Valid() && newStack.Valid() {
		s.bus.Publish(events.StackTransition{TaskID: taskID, From: oldStack, To: newStack})
		if newStack == models.StackDone {
			s.bus.Publish(events.TaskCompleted{TaskID: taskID, Stack: newStack})
		}
	}

	for _, userID := range addedUsers {
		s.bus.Publish(events.UserAssigned{TaskID: taskID, UserID: userID})
	}

	s.bus.Publish(events.TaskUpdated{TaskID: taskID})
}

// ArchiveTask flips a task to the archived status and closes the gap it
// leaves in its partition. Archival is orthogonal to the stack state machine:
// no stack_transition fires.
func (s *TaskService) ArchiveTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.Status != models.TaskStatusArchived {
		if err := s.taskRepo.SetStatus(task.ID, models.TaskStatusArchived); err != nil {
			return nil, fmt.Errorf("failed to archive task: %w", err)
		}
		_ = s.reconciler.ReorderPartition(task.BoardID, task.Stack, task.ID)
		s.bus.Publish(events.TaskUpdated{TaskID: task.ID})
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// UnarchiveTask returns an archived task to published, appending it to the
// end of its (board, stack) partition.
func (s *TaskService) UnarchiveTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.Status == models.TaskStatusArchived {
		if err := s.taskRepo.SetStatus(task.ID, models.TaskStatusPublished); err != nil {
			return nil, fmt.Errorf("failed to unarchive task: %w", err)
		}
		position, err := s.reconciler.AppendOrder(task.BoardID, task.Stack)
		if err != nil {
			s.log.WithError(err).WithField("task_id", task.ID).
				Error("failed to compute append order for unarchived task")
		} else if err := s.taskRepo.SetPosition(task.ID, position); err != nil {
			s.log.WithError(err).WithField("task_id", task.ID).
				Error("failed to position unarchived task")
		}
		_ = s.reconciler.ReorderPartition(task.BoardID, task.Stack, 0)
		s.bus.Publish(events.TaskUpdated{TaskID: task.ID})
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// DeleteTask removes a task and re-densifies the partition it vacated.
func (s *TaskService) DeleteTask(taskID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	boardID, stack := task.BoardID, task.Stack

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	_ = s.reconciler.ReorderPartition(boardID, stack, taskID)

	return nil
}

// MoveTask is the drag-and-drop entry point; see OrderReconciler.MoveTask.
// A stack change through a move fires the same transition events as one
// through a regular update.
func (s *TaskService) MoveTask(input MoveTaskInput) error {
	task, err := s.taskRepo.FindByID(input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}
	if task.Status == models.TaskStatusArchived {
		return ErrTaskArchived
	}

	oldStack := task.Stack

	if err := s.reconciler.MoveTask(input); err != nil {
		return err
	}

	s.emitUpdateEvents(task.ID, oldStack, input.TargetStack, nil)

	return nil
}

// AssignUsers adds users to a task's assignee list, emitting user_assigned
// for each user not already present.
func (s *TaskService) AssignUsers(taskID uint64, userIDs []uint64) (*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task.Status == models.TaskStatusArchived {
		return nil, ErrTaskArchived
	}

	requested := uniqueUint64(userIDs)
	if err := s.verifyUsers(requested); err != nil {
		return nil, err
	}

	current := task.AssigneeIDs()
	added := newlyAdded(current, requested)
	merged := append(append([]uint64{}, current...), added...)

	if err := s.taskRepo.ReplaceAssignments(task.ID, merged); err != nil {
		return nil, fmt.Errorf("failed to assign users: %w", err)
	}

	for _, userID := range added {
		s.bus.Publish(events.UserAssigned{TaskID: task.ID, UserID: userID})
	}
	s.bus.Publish(events.TaskUpdated{TaskID: task.ID})

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// UnassignUsers removes users from a task's assignee list.
func (s *TaskService) UnassignUsers(taskID uint64, userIDs []uint64) (*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task.Status == models.TaskStatusArchived {
		return nil, ErrTaskArchived
	}

	remove := make(map[uint64]struct{}, len(userIDs))
	for _, id := range userIDs {
		remove[id] = struct{}{}
	}

	remaining := make([]uint64, 0, len(task.Assignments))
	for _, id := range task.AssigneeIDs() {
		if _, drop := remove[id]; !drop {
			remaining = append(remaining, id)
		}
	}

	if err := s.taskRepo.ReplaceAssignments(task.ID, remaining); err != nil {
		return nil, fmt.Errorf("failed to unassign users: %w", err)
	}
	s.bus.Publish(events.TaskUpdated{TaskID: task.ID})

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// PlanTaskDay marks a task as relevant for a user on a calendar day.
func (s *TaskService) PlanTaskDay(taskID, userID uint64, day string) error {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return ErrInvalidDay
	}
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}
	return s.taskRepo.PlanDay(taskID, userID, day)
}

// UnplanTaskDay removes a planned-day mark.
func (s *TaskService) UnplanTaskDay(taskID, userID uint64, day string) error {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return ErrInvalidDay
	}
	return s.taskRepo.UnplanDay(taskID, userID, day)
}

// ListPlanned lists the tasks a user planned for a day.
func (s *TaskService) ListPlanned(userID uint64, day string) ([]models.Task, error) {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, ErrInvalidDay
	}
	return s.taskRepo.ListPlanned(userID, day)
}

func (s *TaskService) verifyUsers(userIDs []uint64) error {
	count, err := s.taskRepo.CountUsersByIDs(userIDs)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrInvalidAssignee
	}
	return nil
}

// newlyAdded returns the ids present in next but not in prev, in next order.
func newlyAdded(prev, next []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(prev))
	for _, id := range prev {
		seen[id] = struct{}{}
	}

	var added []uint64
	for _, id := range next {
		if _, exists := seen[id]; !exists {
			added = append(added, id)
		}
	}
	return added
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
