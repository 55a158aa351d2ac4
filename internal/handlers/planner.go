package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtsuji/kanban-board-api/internal/dto"
	apierrors "github.com/mtsuji/kanban-board-api/internal/errors"
	"github.com/mtsuji/kanban-board-api/internal/middleware"
	"github.com/mtsuji/kanban-board-api/internal/services"
)

// PlannerHandler exposes the daily planning view: users mark tasks as
// relevant for a calendar day and list what they planned.
type PlannerHandler struct {
	taskService *services.TaskService
}

func NewPlannerHandler(taskService *services.TaskService) *PlannerHandler {
	return &PlannerHandler{taskService: taskService}
}

// PlanTask marks the task for the current user on a day
func (h *PlannerHandler) PlanTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type PlanRequest struct {
		Day string `json:"day" binding:"required"`
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.PlanTaskDay(task.ID, userID, req.Day); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task planned",
	})
}

// UnplanTask removes the day mark for the current user
func (h *PlannerHandler) UnplanTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	day := c.Query("day")
	if day == "" {
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeMissingField, "day is required")
		return
	}

	if err := h.taskService.UnplanTaskDay(task.ID, userID, day); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task unplanned",
	})
}

// ListPlanned lists the current user's tasks for a day
func (h *PlannerHandler) ListPlanned(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	day := c.Query("day")
	if day == "" {
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeMissingField, "day is required")
		return
	}

	tasks, err := h.taskService.ListPlanned(userID, day)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day":   day,
		"tasks": dto.ToTaskDTOs(tasks),
	})
}
