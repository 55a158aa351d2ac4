package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mtsuji/kanban-board-api/internal/models"
	"github.com/mtsuji/kanban-board-api/internal/repository"
	"github.com/mtsuji/kanban-board-api/internal/utils"
)

var (
	ErrBoardNameRequired = errors.New("board name is required")
	ErrBoardSlugTaken    = errors.New("board slug already exists")
	ErrInvalidColor      = errors.New("color must be a #RRGGBB hex string")
)

// BoardService handles board management and the operator-facing order repair.
type BoardService struct {
	boardRepo  repository.BoardRepository
	reconciler *OrderReconciler
	log        *logrus.Logger
}

// NewBoardService creates a new BoardService
func NewBoardService(boardRepo repository.BoardRepository, reconciler *OrderReconciler, log *logrus.Logger) *BoardService {
	return &BoardService{
		boardRepo:  boardRepo,
		reconciler: reconciler,
		log:        log,
	}
}

// CreateBoardInput represents input for creating a board
type CreateBoardInput struct {
	Name         string
	Color        string
	ShowInBoards *bool
	ShowInKB     bool
	OwnerID      uint64
}

// UpdateBoardInput represents input for updating a board
type UpdateBoardInput struct {
	Name         *string
	Color        *string
	ShowInBoards *bool
	ShowInKB     *bool
}

// CreateBoard creates a board with a unique slug derived from its name.
func (s *BoardService) CreateBoard(input CreateBoardInput) (*models.Board, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrBoardNameRequired
	}
	if input.Color != "" && !utils.ValidHexColor(input.Color) {
		return nil, ErrInvalidColor
	}

	slug, err := s.uniqueSlug(utils.Slugify(name))
	if err != nil {
		return nil, err
	}

	board := &models.Board{
		Name:         name,
		Slug:         slug,
		ShowInBoards: true,
		ShowInKB:     input.ShowInKB,
		OwnerID:      input.OwnerID,
	}
	if input.Color != "" {
		board.Color = input.Color
	}
	if input.ShowInBoards != nil {
		board.ShowInBoards = *input.ShowInBoards
	}

	if err := s.boardRepo.Create(board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	return board, nil
}

// GetBoard retrieves a board by ID
func (s *BoardService) GetBoard(boardID uint64) (*models.Board, error) {
	board, err := s.boardRepo.FindByID(boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}
	return board, nil
}

// ListBoards lists boards, optionally only those visible in the boards view
func (s *BoardService) ListBoards(visibleOnly bool) ([]models.Board, error) {
	boards, err := s.boardRepo.List(visibleOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// UpdateBoard updates board attributes; renaming does not change the slug.
func (s *BoardService) UpdateBoard(boardID uint64, input UpdateBoardInput) (*models.Board, error) {
	board, err := s.GetBoard(boardID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrBoardNameRequired
		}
		board.Name = strings.TrimSpace(*input.Name)
	}
	if input.Color != nil {
		if !utils.ValidHexColor(*input.Color) {
			return nil, ErrInvalidColor
		}
		board.Color = *input.Color
	}
	if input.ShowInBoards != nil {
		board.ShowInBoards = *input.ShowInBoards
	}
	if input.ShowInKB != nil {
		board.ShowInKB = *input.ShowInKB
	}

	if err := s.boardRepo.Update(board); err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	return board, nil
}

// DeleteBoard deletes a board
func (s *BoardService) DeleteBoard(boardID uint64) error {
	if _, err := s.GetBoard(boardID); err != nil {
		return err
	}
	if err := s.boardRepo.Delete(boardID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

// FixOrder re-reconciles every stack of a board unconditionally. It is the
// operator-triggered repair for ordering drift, not part of normal flow.
func (s *BoardService) FixOrder(boardID uint64) error {
	if _, err := s.GetBoard(boardID); err != nil {
		return err
	}

	var firstErr error
	for _, stack := range models.Stacks {
		if err := s.reconciler.ReorderPartition(boardID, stack, 0); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// uniqueSlug appends a numeric suffix until the slug is free.
func (s *BoardService) uniqueSlug(base string) (string, error) {
	if base == "" {
		base = "board"
	}

	slug := base
	for i := 2; ; i++ {
		_, err := s.boardRepo.FindBySlug(slug)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
