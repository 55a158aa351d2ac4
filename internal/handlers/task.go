package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mtsuji/kanban-board-api/internal/dto"
	apierrors "github.com/mtsuji/kanban-board-api/internal/errors"
	"github.com/mtsuji/kanban-board-api/internal/middleware"
	"github.com/mtsuji/kanban-board-api/internal/models"
	"github.com/mtsuji/kanban-board-api/internal/services"
	"github.com/mtsuji/kanban-board-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	aiService   *services.AIService
}

func NewTaskHandler(taskService *services.TaskService, aiService *services.AIService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		aiService:   aiService,
	}
}

// ListTasks returns tasks, filterable by board, stack, status, assignment and
// due date. Board-scoped listings come back in partition order.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		UserID:       userID,
		AssignedToMe: c.Query("assigned") == "me",
		DueToday:     c.Query("due") == "today",
		Page:         params.Page,
		PageSize:     params.Limit,
	}

	if boardIDStr := c.Query("board_id"); boardIDStr != "" {
		boardID, err := strconv.ParseUint(boardIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid board_id")
			return
		}
		input.BoardID = &boardID
	}
	if stackStr := c.Query("stack"); stackStr != "" {
		stack := models.Stack(stackStr)
		if !stack.Valid() {
			apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidStack, "Invalid stack")
			return
		}
		input.Stack = &stack
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		input.Status = &status
	} else {
		published := models.TaskStatusPublished
		input.Status = &published
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTask middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title           string       `json:"title"`
		Description     string       `json:"description"`
		Stack           models.Stack `json:"stack"`
		BoardID         uint64       `json:"board_id"`
		Pinned          bool         `json:"pinned"`
		DueDate         *time.Time   `json:"due_date"`
		AssignedUsers   []uint64     `json:"assigned_users"`
		LabelIDs        []uint64     `json:"label_ids"`
		Archived        bool         `json:"archived"`
		Draft           bool         `json:"draft"`
		NextcloudCardID uint64       `json:"nextcloud_card_id"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Stack == "" {
		req.Stack = models.StackTodo
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		Stack:           req.Stack,
		BoardID:         req.BoardID,
		Pinned:          req.Pinned,
		DueDate:         req.DueDate,
		CreatorID:       userID,
		AssignedUsers:   req.AssignedUsers,
		LabelIDs:        req.LabelIDs,
		Archived:        req.Archived,
		Draft:           req.Draft,
		NextcloudCardID: req.NextcloudCardID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task. Any position value in the payload is
// ignored; ordering belongs to the reconciler and the move endpoint.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type UpdateTaskRequest struct {
		Title           *string       `json:"title"`
		Description     *string       `json:"description"`
		Stack           *models.Stack `json:"stack"`
		BoardID         *uint64       `json:"board_id"`
		Pinned          *bool         `json:"pinned"`
		DueDate         *time.Time    `json:"due_date"`
		ClearDueDate    bool          `json:"clear_due_date"`
		AssignedUsers   *[]uint64     `json:"assigned_users"`
		LabelIDs        *[]uint64     `json:"label_ids"`
		CommentCount    *int          `json:"comment_count"`
		NextcloudCardID *uint64       `json:"nextcloud_card_id"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UpdateTask(task.ID, services.UpdateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		Stack:           req.Stack,
		BoardID:         req.BoardID,
		Pinned:          req.Pinned,
		DueDate:         req.DueDate,
		ClearDueDate:    req.ClearDueDate,
		AssignedUsers:   req.AssignedUsers,
		LabelIDs:        req.LabelIDs,
		CommentCount:    req.CommentCount,
		NextcloudCardID: req.NextcloudCardID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task and closes the gap in its partition
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// MoveTask is the drag-and-drop endpoint. It responds with the
// {success, message} shape board clients consume.
func (h *TaskHandler) MoveTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type MoveTaskRequest struct {
		BoardID     uint64       `json:"board_id"`
		SourceStack models.Stack `json:"source_stack"`
		TargetStack models.Stack `json:"target_stack"`
		SourceOrder int          `json:"source_order"`
		TargetOrder int          `json:"target_order"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	err := h.taskService.MoveTask(services.MoveTaskInput{
		TaskID:      task.ID,
		BoardID:     req.BoardID,
		SourceStack: req.SourceStack,
		TargetStack: req.TargetStack,
		SourceOrder: req.SourceOrder,
		TargetOrder: req.TargetOrder,
	})
	if err != nil {
		status, message := moveFailure(err)
		c.JSON(status, gin.H{"success": false, "message": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task moved"})
}

// ArchiveTask flips a task into the archived status
func (h *TaskHandler) ArchiveTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	archived, err := h.taskService.ArchiveTask(task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*archived))
}

// UnarchiveTask returns an archived task to its board
func (h *TaskHandler) UnarchiveTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	restored, err := h.taskService.UnarchiveTask(task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*restored))
}

// AssignTask assigns users to a task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type AssignUserRequest struct {
		UserIDs []uint64 `json:"user_ids" binding:"required"`
	}

	var req AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.AssignUsers(task.ID, req.UserIDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Users assigned successfully",
		"assignments": dto.ToTaskDTO(*updated).Assignments,
	})
}

// UnassignTask removes user assignments from a task
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type AssignUserRequest struct {
		UserIDs []uint64 `json:"user_ids" binding:"required"`
	}

	var req AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UnassignUsers(task.ID, req.UserIDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Users unassigned successfully",
		"assignments": dto.ToTaskDTO(*updated).Assignments,
	})
}

// GenerateTasks extracts draft tasks from free text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type GenerateTasksRequest struct {
		Text    string `json:"text" binding:"required"`
		BoardID uint64 `json:"board_id" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if h.aiService == nil {
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
		return
	}

	drafts, err := h.taskService.GenerateDrafts(c.Request.Context(), h.aiService, req.Text, req.BoardID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(drafts),
	})
}

// moveFailure maps a move error to the Move API's status and message.
func moveFailure(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidStack):
		return http.StatusBadRequest, "Invalid stack"
	case errors.Is(err, services.ErrInvalidMoveParams):
		return http.StatusBadRequest, "Invalid move parameters"
	case errors.Is(err, services.ErrTaskNotFound):
		return http.StatusNotFound, "Task not found"
	case errors.Is(err, services.ErrTaskArchived):
		return http.StatusConflict, "Archived tasks cannot be moved"
	default:
		return http.StatusInternalServerError, "Failed to move task"
	}
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrStackRequired),
		errors.Is(err, services.ErrBoardRequired):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeMissingField, err.Error())
	case errors.Is(err, services.ErrInvalidStack):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidStack, err.Error())
	case errors.Is(err, services.ErrBoardNotFound):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidReference, err.Error())
	case errors.Is(err, services.ErrInvalidMoveParams):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidParameters, err.Error())
	case errors.Is(err, services.ErrNoUserIDsProvided),
		errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrInvalidDay):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskArchived):
		RespondInvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

// RespondInvalidOperation sends a 409 with the INVALID_OPERATION code.
func RespondInvalidOperation(c *gin.Context, message string) {
	apierrors.RespondWithError(c, http.StatusConflict,
		apierrors.NewAPIError(apierrors.ErrCodeInvalidOperation, message))
}
