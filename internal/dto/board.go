package dto

import (
	"time"

	"github.com/mtsuji/kanban-board-api/internal/models"
)

// BoardDTO represents a board in API responses
type BoardDTO struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Color        string    `json:"color"`
	ShowInBoards bool      `json:"show_in_boards"`
	ShowInKB     bool      `json:"show_in_kb"`
	OwnerID      uint64    `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToBoardDTO converts a Board model to BoardDTO
func ToBoardDTO(board models.Board) BoardDTO {
	return BoardDTO{
		ID:           board.ID,
		Name:         board.Name,
		Slug:         board.Slug,
		Color:        board.Color,
		ShowInBoards: board.ShowInBoards,
		ShowInKB:     board.ShowInKB,
		OwnerID:      board.OwnerID,
		CreatedAt:    board.CreatedAt,
	}
}

// ToBoardDTOs converts a slice of boards
func ToBoardDTOs(boards []models.Board) []BoardDTO {
	dtos := make([]BoardDTO, len(boards))
	for i, board := range boards {
		dtos[i] = ToBoardDTO(board)
	}
	return dtos
}
