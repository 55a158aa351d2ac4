package models

import "time"

// TaskDay marks a task as relevant for a user on a calendar day, backing the
// daily planner view. Day is stored as a date-only string (YYYY-MM-DD) so the
// pair is comparable across timezones.
type TaskDay struct {
	TaskID    uint64    `gorm:"primarykey" json:"task_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	Day       string    `gorm:"primarykey;type:varchar(10)" json:"day"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
