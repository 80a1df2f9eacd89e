package models

import (
	"time"
)

// Discussion is a forum thread; its messages are Posts.
type Discussion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AuthorID  uint      `gorm:"not null;index" json:"authorId"`
	Author    *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	IsOpen    bool      `gorm:"not null" json:"isOpen"`
	IsPinned  bool      `gorm:"not null;index" json:"isPinned"`
	IsLocked  bool      `gorm:"not null" json:"isLocked"`
	Views     int       `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	PostsCount int `gorm:"-" json:"postsCount"`
}
