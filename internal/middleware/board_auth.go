package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mtsuji/kanban-board-api/internal/constants"
	"github.com/mtsuji/kanban-board-api/internal/database"
	apierrors "github.com/mtsuji/kanban-board-api/internal/errors"
	"github.com/mtsuji/kanban-board-api/internal/models"
)

// RequireBoard resolves the :id path parameter to an existing board and loads
// it into the gin context.
func RequireBoard() gin.HandlerFunc {
	return func(c *gin.Context) {
		boardIDStr := c.Param("id")
		boardID, err := strconv.ParseUint(boardIDStr, 10, 64)
		if err != nil || boardID == 0 {
			apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidParameters, "Invalid board ID")
			c.Abort()
			return
		}

		if _, exists := GetUserID(c); !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var board models.Board
		if err := database.GetDB().First(&board, boardID).Error; err != nil {
			apierrors.NotFound(c, "Board not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyBoard, board)
		c.Next()
	}
}

// GetBoard retrieves the preloaded board from context.
func GetBoard(c *gin.Context) (models.Board, bool) {
	boardInterface, exists := c.Get(constants.ContextKeyBoard)
	if !exists {
		return models.Board{}, false
	}
	board, ok := boardInterface.(models.Board)
	return board, ok
}
