package models

import "time"

// TaskAssignment links a task to an assigned user. Ordinal preserves the
// order of the assignee list as supplied by the caller; it is rewritten on
// every assignment sync.
type TaskAssignment struct {
	TaskID    uint64    `gorm:"primarykey" json:"task_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	Ordinal   int       `gorm:"not null;default:0" json:"ordinal"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
