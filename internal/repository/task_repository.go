package repository

import (
	"gorm.io/gorm"

	"github.com/mtsuji/kanban-board-api/internal/database"
	"github.com/mtsuji/kanban-board-api/internal/models"
	"github.com/mtsuji/kanban-board-api/internal/utils"
)

// PartitionOrder is the canonical sort for tasks within a (board, stack)
// partition; it is the exact order the reconciler persists as positions 1..N.
const PartitionOrder = "pinned DESC, position ASC, updated_at DESC"

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		if p == "Assignments" {
			query = query.Preload(p, func(db *gorm.DB) *gorm.DB {
				return db.Order("task_assignments.ordinal ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.BoardID != nil {
		query = query.Where("tasks.board_id = ?", *filter.BoardID)
	}
	if filter.Stack != nil {
		query = query.Where("tasks.stack = ?", *filter.Stack)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID)
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.BoardID != nil {
		// Board views follow partition order so columns render as persisted.
		listQuery = listQuery.Order(PartitionOrder)
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.Preload("Creator").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListPartition returns the published tasks of a partition in canonical order
func (r *GormTaskRepository) ListPartition(boardID uint64, stack models.Stack, excludeID uint64) ([]models.Task, error) {
	var tasks []models.Task
	query := r.db.
		Where("board_id = ? AND stack = ? AND status = ?", boardID, stack, models.TaskStatusPublished).
		Order(PartitionOrder)

	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update persists a task without ever writing the position column
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(task).
		Select("*").
		Omit("position", "created_at").
		Updates(task).Error
}

// SetBoard moves a task to another board
func (r *GormTaskRepository) SetBoard(taskID, boardID uint64) error {
	return r.db.Model(&models.Task{}).Where("id = ?", taskID).
		UpdateColumn("board_id", boardID).Error
}

// SetStack moves a task to another stack
func (r *GormTaskRepository) SetStack(taskID uint64, stack models.Stack) error {
	return r.db.Model(&models.Task{}).Where("id = ?", taskID).
		UpdateColumn("stack", stack).Error
}

// SetPosition writes an explicit position. This write bumps updated_at on
// purpose: when reconciliation finds two tasks tied on the same position, the
// recency tiebreak then ranks the just-moved task first, so it lands exactly
// on the slot it was dropped on.
func (r *GormTaskRepository) SetPosition(taskID uint64, position int) error {
	return r.db.Model(&models.Task{}).Where("id = ?", taskID).
		Update("position", position).Error
}

// SetStatus flips a task's status
func (r *GormTaskRepository) SetStatus(taskID uint64, status models.TaskStatus) error {
	return r.db.Model(&models.Task{}).Where("id = ?", taskID).
		Update("status", status).Error
}

// Delete soft deletes a task and its assignments
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskDay{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// ReplaceAssignments replaces the assignee list, keeping list order
func (r *GormTaskRepository) ReplaceAssignments(taskID uint64, userIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("task_id = ?", taskID).
			Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		if len(userIDs) == 0 {
			return nil
		}

		assignments := make([]models.TaskAssignment, len(userIDs))
		for i, userID := range userIDs {
			assignments[i] = models.TaskAssignment{
				TaskID:  taskID,
				UserID:  userID,
				Ordinal: i,
			}
		}

		return tx.Create(&assignments).Error
	})
}

// ReplaceLabels replaces the task's label set
func (r *GormTaskRepository) ReplaceLabels(taskID uint64, labelIDs []uint64) error {
	task := models.Task{ID: taskID}

	var labels []models.Label
	if len(labelIDs) > 0 {
		if err := r.db.Find(&labels, labelIDs).Error; err != nil {
			return err
		}
	}

	return r.db.Model(&task).Association("Labels").Replace(&labels)
}

// PlanDay marks the task as planned for a user on a calendar day
func (r *GormTaskRepository) PlanDay(taskID, userID uint64, day string) error {
	relation := models.TaskDay{
		TaskID: taskID,
		UserID: userID,
		Day:    day,
	}
	return r.db.FirstOrCreate(&relation, relation).Error
}

// UnplanDay removes a planned day mark
func (r *GormTaskRepository) UnplanDay(taskID, userID uint64, day string) error {
	return r.db.Unscoped().
		Where("task_id = ? AND user_id = ? AND day = ?", taskID, userID, day).
		Delete(&models.TaskDay{}).Error
}

// ListPlanned lists the tasks a user planned for a day
func (r *GormTaskRepository) ListPlanned(userID uint64, day string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Joins("JOIN task_days ON task_days.task_id = tasks.id").
		Where("task_days.user_id = ? AND task_days.day = ?", userID, day).
		Order(PartitionOrder).
		Find(&tasks).Error
	return tasks, err
}

// CountUsersByIDs counts how many of the given user IDs exist
func (r *GormTaskRepository) CountUsersByIDs(userIDs []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("id IN ?", userIDs).
		Count(&count).Error
	return count, err
}
