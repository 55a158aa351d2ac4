package repository

import (
	"gorm.io/gorm"

	"github.com/mtsuji/kanban-board-api/internal/models"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

// Create creates a new board
func (r *GormBoardRepository) Create(board *models.Board) error {
	return r.db.Create(board).Error
}

// FindByID finds a board by ID
func (r *GormBoardRepository) FindByID(id uint64) (*models.Board, error) {
	var board models.Board
	if err := r.db.First(&board, id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// FindBySlug finds a board by slug
func (r *GormBoardRepository) FindBySlug(slug string) (*models.Board, error) {
	var board models.Board
	if err := r.db.Where("slug = ?", slug).First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// List lists boards, optionally only those visible in the boards view
func (r *GormBoardRepository) List(visibleOnly bool) ([]models.Board, error) {
	var boards []models.Board
	query := r.db.Order("name ASC")
	if visibleOnly {
		query = query.Where("show_in_boards = ?", true)
	}
	if err := query.Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// Update updates a board
func (r *GormBoardRepository) Update(board *models.Board) error {
	return r.db.Save(board).Error
}

// Delete deletes a board
func (r *GormBoardRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Board{}, id).Error
}

// Exists reports whether a board exists
func (r *GormBoardRepository) Exists(id uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Board{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
