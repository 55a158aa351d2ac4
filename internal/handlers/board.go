package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtsuji/kanban-board-api/internal/dto"
	apierrors "github.com/mtsuji/kanban-board-api/internal/errors"
	"github.com/mtsuji/kanban-board-api/internal/middleware"
	"github.com/mtsuji/kanban-board-api/internal/services"
)

// BoardHandler coordinates board HTTP handlers.
type BoardHandler struct {
	boardService *services.BoardService
}

// NewBoardHandler creates a new BoardHandler
func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// CreateBoard creates a new board
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateBoardRequest struct {
		Name         string `json:"name" binding:"required,max=255"`
		Color        string `json:"color"`
		ShowInBoards *bool  `json:"show_in_boards"`
		ShowInKB     bool   `json:"show_in_kb"`
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boardService.CreateBoard(services.CreateBoardInput{
		Name:         req.Name,
		Color:        req.Color,
		ShowInBoards: req.ShowInBoards,
		ShowInKB:     req.ShowInKB,
		OwnerID:      userID,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToBoardDTO(*board))
}

// ListBoards lists boards; ?visible=true limits to the boards view
func (h *BoardHandler) ListBoards(c *gin.Context) {
	boards, err := h.boardService.ListBoards(c.Query("visible") == "true")
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch boards")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"boards": dto.ToBoardDTOs(boards),
	})
}

// GetBoard returns a board loaded by RequireBoard middleware
func (h *BoardHandler) GetBoard(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(board))
}

// UpdateBoard updates board attributes
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	type UpdateBoardRequest struct {
		Name         *string `json:"name"`
		Color        *string `json:"color"`
		ShowInBoards *bool   `json:"show_in_boards"`
		ShowInKB     *bool   `json:"show_in_kb"`
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.boardService.UpdateBoard(board.ID, services.UpdateBoardInput{
		Name:         req.Name,
		Color:        req.Color,
		ShowInBoards: req.ShowInBoards,
		ShowInKB:     req.ShowInKB,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(*updated))
}

// DeleteBoard deletes a board
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	if err := h.boardService.DeleteBoard(board.ID); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Board deleted successfully",
	})
}

// FixOrder re-reconciles every stack of a board. Operator repair tool; the
// {success, message} shape matches the move endpoint.
func (h *BoardHandler) FixOrder(c *gin.Context) {
	board, ok := middleware.GetBoard(c)
	if !ok {
		apierrors.InternalError(c, "Board not found in context")
		return
	}

	if err := h.boardService.FixOrder(board.ID); err != nil {
		if errors.Is(err, services.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fix board order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Board order fixed"})
}

func respondBoardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBoardNameRequired):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeMissingField, err.Error())
	case errors.Is(err, services.ErrInvalidColor):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrBoardSlugTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrBoardNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
