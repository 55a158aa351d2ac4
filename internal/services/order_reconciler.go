package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mtsuji/kanban-board-api/internal/models"
	"github.com/mtsuji/kanban-board-api/internal/repository"
)

var (
	ErrInvalidStack      = errors.New("stack is not one of to-do, in-progress, done")
	ErrInvalidMoveParams = errors.New("task id, source order and target order must be positive")
)

// OrderReconciler maintains the dense 1..N position sequence of every
// (board, stack) partition. It is the only writer of the position column
// besides the explicit move primitive, and it rewrites a partition with a
// single bulk statement so concurrent reorders cannot interleave row by row.
//
// A failed reorder leaves the partition transiently non-dense; the next
// partition-affecting write re-densifies it, so callers treat reorder errors
// as logged-and-degraded rather than fatal.
type OrderReconciler struct {
	db    *gorm.DB
	tasks repository.TaskRepository
	log   *logrus.Logger
}

// NewOrderReconciler creates a new OrderReconciler
func NewOrderReconciler(db *gorm.DB, tasks repository.TaskRepository, log *logrus.Logger) *OrderReconciler {
	return &OrderReconciler{
		db:    db,
		tasks: tasks,
		log:   log,
	}
}

// AppendOrder returns the position a task appended to the partition should
// take: max(position)+1 over the published tasks, 1 for an empty partition.
func (r *OrderReconciler) AppendOrder(boardID uint64, stack models.Stack) (int, error) {
	var max int
	err := r.db.Model(&models.Task{}).
		Where("board_id = ? AND stack = ? AND status = ?", boardID, stack, models.TaskStatusPublished).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute append order: %w", err)
	}
	return max + 1, nil
}

// ReorderPartition recomputes and persists a dense 1..N ordering for the
// published tasks of a (board, stack) partition, sorted by pinned DESC,
// position ASC, updated_at DESC. excludeID (0 = none) drops one task from the
// ranking, used right before a delete finalizes.
//
// The rewrite is one UPDATE against a ranked subquery; the store's own
// locking is the only synchronization. Errors are logged with the partition
// key and reported to the caller, who may continue.
func (r *OrderReconciler) ReorderPartition(boardID uint64, stack models.Stack, excludeID uint64) error {
	sql := reorderStatement(r.db.Dialector.Name())

	res := r.db.Exec(sql, boardID, stack, models.TaskStatusPublished, excludeID)
	if res.Error != nil {
		r.log.WithFields(logrus.Fields{
			"board_id": boardID,
			"stack":    stack,
			"exclude":  excludeID,
		}).WithError(res.Error).Error("partition reorder failed")
		return fmt.Errorf("failed to reorder partition (%d, %s): %w", boardID, stack, res.Error)
	}

	return nil
}

// reorderStatement returns the dialect-specific bulk ranking UPDATE.
// Parameters: board_id, stack, status, exclude_id.
func reorderStatement(dialect string) string {
	const ranked = `SELECT id, ROW_NUMBER() OVER (
			ORDER BY pinned DESC, position ASC, updated_at DESC
		) AS new_position
		FROM tasks
		WHERE board_id = ? AND stack = ? AND status = ?
		  AND deleted_at IS NULL AND id <> ?`

	if dialect == "mysql" {
		return `UPDATE tasks
		JOIN (` + ranked + `) ranked ON tasks.id = ranked.id
		SET tasks.position = ranked.new_position`
	}

	// postgres and sqlite share UPDATE ... FROM
	return `UPDATE tasks SET position = ranked.new_position
	FROM (` + ranked + `) AS ranked
	WHERE tasks.id = ranked.id`
}

// MoveTaskInput is the drag-and-drop move request.
type MoveTaskInput struct {
	TaskID      uint64
	BoardID     uint64 // target board; 0 keeps the current board
	SourceStack models.Stack
	TargetStack models.Stack
	SourceOrder int
	TargetOrder int
}

// MoveTask applies a drag-and-drop move: board/stack reassignment, an
// explicit position write, then reconciliation of every partition the move
// touched. Validation failures return typed errors with no writes; reorder
// failures after the primary write are logged and non-fatal because the next
// reconciliation self-corrects.
func (r *OrderReconciler) MoveTask(input MoveTaskInput) error {
	if input.TaskID == 0 || input.SourceOrder <= 0 || input.TargetOrder <= 0 {
		return ErrInvalidMoveParams
	}
	if !input.SourceStack.Valid() || !input.TargetStack.Valid() {
		return ErrInvalidStack
	}

	task, err := r.tasks.FindByID(input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	sourceBoardID := task.BoardID
	sourceStack := task.Stack

	targetBoardID := input.BoardID
	if targetBoardID == 0 {
		targetBoardID = sourceBoardID
	}

	if targetBoardID != task.BoardID {
		if err := r.tasks.SetBoard(task.ID, targetBoardID); err != nil {
			return fmt.Errorf("failed to move task to board %d: %w", targetBoardID, err)
		}
	}
	if input.TargetStack != task.Stack {
		if err := r.tasks.SetStack(task.ID, input.TargetStack); err != nil {
			return fmt.Errorf("failed to move task to stack %s: %w", input.TargetStack, err)
		}
	}

	samePartition := targetBoardID == sourceBoardID && input.TargetStack == sourceStack

	// Dropping below the source slot in the same list: removing the task
	// shifts everything after it up by one, so the raw target index lands one
	// short. Cross-partition moves skip the adjustment; reconciliation is the
	// sole source of truth for the final position there.
	finalOrder := input.TargetOrder
	if samePartition && input.TargetOrder > input.SourceOrder {
		finalOrder = input.TargetOrder + 1
	}

	if err := r.tasks.SetPosition(task.ID, finalOrder); err != nil {
		return fmt.Errorf("failed to set task position: %w", err)
	}

	if !samePartition {
		// Close the gap the task left behind.
		_ = r.ReorderPartition(sourceBoardID, sourceStack, 0)
	}

	// Always re-densify the target, resolving the duplicate slot the explicit
	// position write introduced and re-applying pinned-first ordering.
	_ = r.ReorderPartition(targetBoardID, input.TargetStack, 0)

	return nil
}
