package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mtsuji/kanban-board-api/internal/models"
	"github.com/mtsuji/kanban-board-api/internal/repository"
)

var (
	ErrLabelNameRequired = errors.New("label name is required")
	ErrLabelNotFound     = errors.New("label not found")
)

// LabelService handles label management.
type LabelService struct {
	labelRepo repository.LabelRepository
}

func NewLabelService(labelRepo repository.LabelRepository) *LabelService {
	return &LabelService{labelRepo: labelRepo}
}

func (s *LabelService) CreateLabel(name, color string) (*models.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrLabelNameRequired
	}

	label := &models.Label{Name: name}
	if color != "" {
		label.Color = color
	}

	if err := s.labelRepo.Create(label); err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	return label, nil
}

func (s *LabelService) ListLabels() ([]models.Label, error) {
	labels, err := s.labelRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

func (s *LabelService) UpdateLabel(id uint64, name, color *string) (*models.Label, error) {
	label, err := s.labelRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLabelNotFound
		}
		return nil, fmt.Errorf("failed to find label: %w", err)
	}

	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, ErrLabelNameRequired
		}
		label.Name = strings.TrimSpace(*name)
	}
	if color != nil {
		label.Color = *color
	}

	if err := s.labelRepo.Update(label); err != nil {
		return nil, fmt.Errorf("failed to update label: %w", err)
	}
	return label, nil
}

func (s *LabelService) DeleteLabel(id uint64) error {
	if _, err := s.labelRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLabelNotFound
		}
		return fmt.Errorf("failed to find label: %w", err)
	}
	if err := s.labelRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	return nil
}
