package models

import (
	"time"
)

// Prompt is a shareable AI-prompt template.
type Prompt struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	AuthorID    uint       `gorm:"not null;index" json:"authorId"`
	Author      *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	SpecialtyID *uint      `gorm:"index" json:"specialtyId"`
	Specialty   *Specialty `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"specialty,omitempty"`
	Tags        []string   `gorm:"serializer:json;type:text" json:"tags"`
	IsPublic    bool       `gorm:"not null;index" json:"isPublic"`
	IsApproved  bool       `gorm:"not null;index" json:"isApproved"`
	Views       int        `gorm:"not null;default:0" json:"views"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// filled per request
	LikesCount    int    `gorm:"-" json:"likesCount"`
	CommentsCount int    `gorm:"-" json:"commentsCount"`
	IsLiked       bool   `gorm:"-" json:"isLiked"`
	ContentHTML   string `gorm:"-" json:"contentHtml,omitempty"`
}
