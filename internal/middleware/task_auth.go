package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mtsuji/kanban-board-api/internal/constants"
	"github.com/mtsuji/kanban-board-api/internal/database"
	apierrors "github.com/mtsuji/kanban-board-api/internal/errors"
	"github.com/mtsuji/kanban-board-api/internal/models"
)

// RequireTask resolves the :id path parameter to an existing task and loads
// it into the gin context for the handler.
func RequireTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskIDStr := c.Param("id")
		taskID, err := strconv.ParseUint(taskIDStr, 10, 64)
		if err != nil || taskID == 0 {
			apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidParameters, "Invalid task ID")
			c.Abort()
			return
		}

		if _, exists := GetUserID(c); !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var task models.Task
		if err := database.GetDB().
			Preload("Creator").
			Preload("Board").
			Preload("Assignments").
			Preload("Assignments.User").
			Preload("Labels").
			First(&task, taskID).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the preloaded task from context.
func GetTask(c *gin.Context) (models.Task, bool) {
	taskInterface, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := taskInterface.(models.Task)
	return task, ok
}
