package models

import (
	"time"
)

// Comment targets exactly one of a Prompt or a Post. Threading is one level deep:
// ParentID always points at a top-level comment.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PromptID   *uint     `gorm:"index" json:"promptId,omitempty"`
	Prompt     *Prompt   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID     *uint     `gorm:"index" json:"postId,omitempty"`
	Post       *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID   uint      `gorm:"not null;index" json:"authorId"`
	Author     *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	ParentID   *uint     `gorm:"index" json:"parentId"` // nil for top-level comments
	Replies    []Comment `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"replies,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsApproved bool      `gorm:"not null;index" json:"isApproved"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	LikesCount  int    `gorm:"-" json:"likesCount"`
	IsLiked     bool   `gorm:"-" json:"isLiked"`
	ContentHTML string `gorm:"-" json:"contentHtml,omitempty"`
}
