package models

import (
	"time"

	"gorm.io/gorm"
)

type Board struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Color        string         `gorm:"type:varchar(7);not null;default:'#0073aa'" json:"color"`
	ShowInBoards bool           `gorm:"not null;default:true" json:"show_in_boards"`
	ShowInKB     bool           `gorm:"not null;default:false" json:"show_in_kb"`
	OwnerID      uint64         `gorm:"not null" json:"owner_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tasks []Task `gorm:"foreignKey:BoardID" json:"tasks,omitempty"`
}
