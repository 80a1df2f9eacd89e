package models

import (
	"time"
)

// PromptLike - the row's existence means the user likes the prompt.
// The (user_id, prompt_id) unique index is what prevents double likes.
type PromptLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_prompt_like_user" json:"userId"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PromptID  uint      `gorm:"not null;index;uniqueIndex:idx_prompt_like_user" json:"promptId"`
	Prompt    *Prompt   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentLike - same contract as PromptLike, keyed on (user_id, comment_id).
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_comment_like_user" json:"userId"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CommentID uint      `gorm:"not null;index;uniqueIndex:idx_comment_like_user" json:"commentId"`
	Comment   *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
