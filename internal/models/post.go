package models

import (
	"time"
)

// Post is a single message inside a Discussion.
type Post struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	DiscussionID uint        `gorm:"not null;index" json:"discussionId"`
	Discussion   *Discussion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID     uint        `gorm:"not null;index" json:"authorId"`
	Author       *User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	Content      string      `gorm:"type:text;not null" json:"content"`
	IsEdited     bool        `gorm:"not null" json:"isEdited"`
	CreatedAt    time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	ContentHTML string `gorm:"-" json:"contentHtml,omitempty"`
}
