package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mtsuji/kanban-board-api/internal/dto"
	apierrors "github.com/mtsuji/kanban-board-api/internal/errors"
	"github.com/mtsuji/kanban-board-api/internal/services"
)

// LabelHandler coordinates label HTTP handlers.
type LabelHandler struct {
	labelService *services.LabelService
}

func NewLabelHandler(labelService *services.LabelService) *LabelHandler {
	return &LabelHandler{labelService: labelService}
}

// CreateLabel creates a new label
func (h *LabelHandler) CreateLabel(c *gin.Context) {
	type CreateLabelRequest struct {
		Name  string `json:"name" binding:"required,max=255"`
		Color string `json:"color"`
	}

	var req CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	label, err := h.labelService.CreateLabel(req.Name, req.Color)
	if err != nil {
		respondLabelError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLabelDTO(*label))
}

// ListLabels lists all labels
func (h *LabelHandler) ListLabels(c *gin.Context) {
	labels, err := h.labelService.ListLabels()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch labels")
		return
	}

	dtos := make([]dto.LabelDTO, len(labels))
	for i, label := range labels {
		dtos[i] = dto.ToLabelDTO(label)
	}

	c.JSON(http.StatusOK, gin.H{"labels": dtos})
}

// UpdateLabel updates a label
func (h *LabelHandler) UpdateLabel(c *gin.Context) {
	labelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid label ID")
		return
	}

	type UpdateLabelRequest struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}

	var req UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	label, err := h.labelService.UpdateLabel(labelID, req.Name, req.Color)
	if err != nil {
		respondLabelError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLabelDTO(*label))
}

// DeleteLabel deletes a label
func (h *LabelHandler) DeleteLabel(c *gin.Context) {
	labelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid label ID")
		return
	}

	if err := h.labelService.DeleteLabel(labelID); err != nil {
		respondLabelError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Label deleted successfully",
	})
}

func respondLabelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLabelNameRequired):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeMissingField, err.Error())
	case errors.Is(err, services.ErrLabelNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
