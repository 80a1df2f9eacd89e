package models

import (
	"time"
)

type Specialty struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex;size:100" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `gorm:"size:20" json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	PromptsCount int `gorm:"-" json:"promptsCount"`
}
