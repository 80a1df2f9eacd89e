package services

import (
	"context"
	"fmt"

	database "pcprompts/internal/db"
	"pcprompts/internal/models"

	"gorm.io/gorm"
)

// LikeResult is the state after a toggle.
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

// LikeService toggles likes. The row's existence is the only state: a toggle deletes the
// (user, target) row and, when there was none, inserts one. A unique-index violation on
// insert means a concurrent request already liked it, which is the same outcome.
type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

func (s *LikeService) TogglePrompt(ctx context.Context, userID, promptID uint) (LikeResult, error) {
	return s.toggle(ctx, &models.PromptLike{}, "prompt_id", userID, promptID,
		&models.PromptLike{UserID: userID, PromptID: promptID})
}

func (s *LikeService) ToggleComment(ctx context.Context, userID, commentID uint) (LikeResult, error) {
	return s.toggle(ctx, &models.CommentLike{}, "comment_id", userID, commentID,
		&models.CommentLike{UserID: userID, CommentID: commentID})
}

func (s *LikeService) toggle(ctx context.Context, model any, column string, userID, targetID uint, row any) (LikeResult, error) {
	tx := s.db.WithContext(ctx)

	res := tx.Where("user_id = ? AND "+column+" = ?", userID, targetID).Delete(model)
	if res.Error != nil {
		return LikeResult{}, fmt.Errorf("failed to remove like: %w", res.Error)
	}

	liked := false
	if res.RowsAffected == 0 {
		if err := tx.Create(row).Error; err != nil && !database.IsDuplicateKey(err) {
			return LikeResult{}, fmt.Errorf("failed to create like: %w", err)
		}
		liked = true
	}

	var count int64
	if err := tx.Model(model).Where(column+" = ?", targetID).Count(&count).Error; err != nil {
		return LikeResult{}, err
	}
	return LikeResult{Liked: liked, LikesCount: count}, nil
}

type idCount struct {
	ID    uint
	Total int64
}

// CountBy returns model rows grouped by column for the given ids (e.g. likes per prompt).
func CountBy(ctx context.Context, db *gorm.DB, model any, column string, ids []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []idCount
	err := db.WithContext(ctx).Model(model).
		Select(column+" AS id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = int(r.Total)
	}
	return out, nil
}

// LikedBy returns which of ids the user has liked. Anonymous users (0) like nothing.
func (s *LikeService) LikedBy(ctx context.Context, model any, column string, userID uint, ids []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(ids) == 0 {
		return out, nil
	}
	var liked []uint
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &liked).Error
	if err != nil {
		return nil, err
	}
	for _, id := range liked {
		out[id] = true
	}
	return out, nil
}
