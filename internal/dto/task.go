package dto

import (
	"time"

	"github.com/mtsuji/kanban-board-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// LabelDTO represents a label in API responses
type LabelDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	User UserDTO `json:"user"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID              uint64              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Status          models.TaskStatus   `json:"status"`
	Stack           models.Stack        `json:"stack"`
	BoardID         uint64              `json:"board_id"`
	Pinned          bool                `json:"pinned"`
	Position        int                 `json:"position"`
	DueDate         *time.Time          `json:"due_date"`
	CreatorID       uint64              `json:"creator_id"`
	CommentCount    int                 `json:"comment_count"`
	NextcloudCardID uint64              `json:"nextcloud_card_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Creator         *UserDTO            `json:"creator,omitempty"`
	Board           *BoardDTO           `json:"board,omitempty"`
	Assignments     []TaskAssignmentDTO `json:"assignments,omitempty"`
	Labels          []LabelDTO          `json:"labels,omitempty"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToLabelDTO converts a Label model to LabelDTO
func ToLabelDTO(label models.Label) LabelDTO {
	return LabelDTO{
		ID:    label.ID,
		Name:  label.Name,
		Color: label.Color,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:              task.ID,
		Title:           task.Title,
		Description:     task.Description,
		Status:          task.Status,
		Stack:           task.Stack,
		BoardID:         task.BoardID,
		Pinned:          task.Pinned,
		Position:        task.Position,
		DueDate:         task.DueDate,
		CreatorID:       task.CreatorID,
		CommentCount:    task.CommentCount,
		NextcloudCardID: task.NextcloudCardID,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	// Include board if preloaded
	if task.Board.ID != 0 {
		board := ToBoardDTO(task.Board)
		dto.Board = &board
	}

	// Include assignments if preloaded, preserving ordinal order
	if len(task.Assignments) > 0 {
		dto.Assignments = make([]TaskAssignmentDTO, len(task.Assignments))
		for i, assignment := range task.Assignments {
			dto.Assignments[i] = TaskAssignmentDTO{
				User: ToUserDTO(assignment.User),
			}
		}
	}

	if len(task.Labels) > 0 {
		dto.Labels = make([]LabelDTO, len(task.Labels))
		for i, label := range task.Labels {
			dto.Labels[i] = ToLabelDTO(label)
		}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}
