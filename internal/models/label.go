package models

import (
	"time"

	"gorm.io/gorm"
)

// Label is a colored tag, many-to-many with Task. Labels never influence
// partition ordering.
type Label struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Color     string         `gorm:"type:varchar(7);not null;default:'#999999'" json:"color"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tasks []Task `gorm:"many2many:task_labels" json:"-"`
}
