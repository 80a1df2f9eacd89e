package handlers

import (
	"context"
	"net/http"
	"strings"

	"pcprompts/internal/apperr"
	"pcprompts/internal/auth"
	"pcprompts/internal/middleware"
	"pcprompts/internal/models"
	"pcprompts/internal/services"
	"pcprompts/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const commentOrder = "comments.created_at ASC, comments.id ASC"

type CommentHandler struct {
	db    *gorm.DB
	likes *services.LikeService
}

func NewCommentHandler(db *gorm.DB, likes *services.LikeService) *CommentHandler {
	return &CommentHandler{db: db, likes: likes}
}

// commentTarget is the prompt or post a thread hangs off.
type commentTarget struct {
	column string
	id     uint
	locked bool
}

func (t commentTarget) assign(c *models.Comment) {
	id := t.id
	if t.column == "prompt_id" {
		c.PromptID = &id
	} else {
		c.PostID = &id
	}
}

func (t commentTarget) matches(c *models.Comment) bool {
	ref := c.PostID
	if t.column == "prompt_id" {
		ref = c.PromptID
	}
	return ref != nil && *ref == t.id
}

type commentRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=5000"`
	ParentID *uint  `json:"parentId"`
}

type commentUpdateRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// visibleComments: approved for everyone, plus the caller's own, plus everything for moderators.
func visibleComments(actor *auth.Actor) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		switch {
		case actor.Privileged():
			return tx
		case actor != nil:
			return tx.Where("(comments.is_approved = ? OR comments.author_id = ?)", true, actor.ID)
		default:
			return tx.Where("comments.is_approved = ?", true)
		}
	}
}

func (h *CommentHandler) promptTarget(c *gin.Context) (commentTarget, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return commentTarget{}, false
	}
	var prompt models.Prompt
	if err := h.db.WithContext(c.Request.Context()).First(&prompt, id).Error; err != nil {
		fail(c, notFoundOr(err, "Prompt não encontrado"))
		return commentTarget{}, false
	}
	if !canSeePrompt(&prompt, middleware.CurrentActor(c)) {
		fail(c, apperr.NotFound("Prompt não encontrado"))
		return commentTarget{}, false
	}
	return commentTarget{column: "prompt_id", id: id}, true
}

func (h *CommentHandler) postTarget(c *gin.Context) (commentTarget, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return commentTarget{}, false
	}
	var post models.Post
	if err := h.db.WithContext(c.Request.Context()).Preload("Discussion").First(&post, id).Error; err != nil {
		fail(c, notFoundOr(err, "Post não encontrado"))
		return commentTarget{}, false
	}
	locked := post.Discussion != nil && post.Discussion.IsLocked
	return commentTarget{column: "post_id", id: id, locked: locked}, true
}

// decorate fills likes on comments and their replies.
func (h *CommentHandler) decorate(ctx context.Context, comments []models.Comment, userID uint) error {
	var ids []uint
	for i := range comments {
		ids = append(ids, comments[i].ID)
		for j := range comments[i].Replies {
			ids = append(ids, comments[i].Replies[j].ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	counts, err := services.CountBy(ctx, h.db, &models.CommentLike{}, "comment_id", ids)
	if err != nil {
		return err
	}
	liked, err := h.likes.LikedBy(ctx, &models.CommentLike{}, "comment_id", userID, ids)
	if err != nil {
		return err
	}
	fill := func(cm *models.Comment) {
		cm.LikesCount = counts[cm.ID]
		cm.IsLiked = liked[cm.ID]
		cm.ContentHTML = utils.RenderMarkdown(cm.Content)
	}
	for i := range comments {
		fill(&comments[i])
		for j := range comments[i].Replies {
			fill(&comments[i].Replies[j])
		}
	}
	return nil
}

func (h *CommentHandler) list(c *gin.Context, target commentTarget) {
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)
	p := pageParams(c)

	base := func() *gorm.DB {
		return h.db.Model(&models.Comment{}).
			Scopes(visibleComments(actor)).
			Where("comments."+target.column+" = ? AND comments.parent_id IS NULL", target.id)
	}

	var comments []models.Comment
	p, err := paginate(ctx, base, p, commentOrder, &comments, preload("Author", "Replies.Author"), func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("Replies", func(tx *gorm.DB) *gorm.DB {
			return tx.Scopes(visibleComments(actor)).Order(commentOrder)
		})
	})
	if err != nil {
		fail(c, apperr.Internal("Erro ao listar comentários", err))
		return
	}
	if err := h.decorate(ctx, comments, middleware.CurrentUserID(c)); err != nil {
		fail(c, apperr.Internal("Erro ao listar comentários", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments, "pagination": p})
}

func (h *CommentHandler) create(c *gin.Context, target commentTarget) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	actor := auth.ActorFromUser(user)

	if target.locked && !actor.Privileged() {
		fail(c, apperr.Forbidden("Esta discussão está trancada"))
		return
	}

	comment := models.Comment{
		AuthorID:   user.ID,
		Content:    strings.TrimSpace(req.Content),
		IsApproved: true,
	}
	target.assign(&comment)

	if req.ParentID != nil {
		var parent models.Comment
		if err := h.db.WithContext(ctx).First(&parent, *req.ParentID).Error; err != nil {
			fail(c, notFoundOr(err, "Comentário pai não encontrado"))
			return
		}
		if !target.matches(&parent) {
			fail(c, apperr.Validation("O comentário pai pertence a outro conteúdo"))
			return
		}
		// threads are one level deep
		rootID := parent.ID
		if parent.ParentID != nil {
			rootID = *parent.ParentID
		}
		comment.ParentID = &rootID
	}

	if comment.Content == "" {
		fail(c, apperr.Validation("O comentário não pode estar vazio"))
		return
	}
	if err := h.db.WithContext(ctx).Create(&comment).Error; err != nil {
		fail(c, apperr.Internal("Erro ao criar comentário", err))
		return
	}

	comment.Author = user
	comment.ContentHTML = utils.RenderMarkdown(comment.Content)
	c.JSON(http.StatusCreated, gin.H{"message": "Comentário adicionado com sucesso", "comment": comment})
}

// ListForPrompt GET /api/prompts/:id/comments
func (h *CommentHandler) ListForPrompt(c *gin.Context) {
	if target, ok := h.promptTarget(c); ok {
		h.list(c, target)
	}
}

// CreateForPrompt POST /api/prompts/:id/comments
func (h *CommentHandler) CreateForPrompt(c *gin.Context) {
	if target, ok := h.promptTarget(c); ok {
		h.create(c, target)
	}
}

// ListForPost GET /api/posts/:id/comments
func (h *CommentHandler) ListForPost(c *gin.Context) {
	if target, ok := h.postTarget(c); ok {
		h.list(c, target)
	}
}

// CreateForPost POST /api/posts/:id/comments
func (h *CommentHandler) CreateForPost(c *gin.Context) {
	if target, ok := h.postTarget(c); ok {
		h.create(c, target)
	}
}

func (h *CommentHandler) find(c *gin.Context) (*models.Comment, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var comment models.Comment
	if err := h.db.WithContext(c.Request.Context()).First(&comment, id).Error; err != nil {
		fail(c, notFoundOr(err, "Comentário não encontrado"))
		return nil, false
	}
	return &comment, true
}

// Update PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	var req commentUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, ok := h.find(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)
	if !auth.Authorize(comment.AuthorID, actor, auth.LevelOwner) {
		fail(c, apperr.Forbidden("Você não tem permissão para editar este comentário"))
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		fail(c, apperr.Validation("O comentário não pode estar vazio"))
		return
	}
	approved := auth.ApprovalAfterEdit(comment.IsApproved, actor)
	err := h.db.WithContext(c.Request.Context()).Model(comment).Updates(map[string]any{
		"content":     content,
		"is_approved": approved,
	}).Error
	if err != nil {
		fail(c, apperr.Internal("Erro ao atualizar comentário", err))
		return
	}
	comment.Content, comment.IsApproved = content, approved

	c.JSON(http.StatusOK, gin.H{"message": "Comentário atualizado com sucesso", "comment": comment})
}

// Delete DELETE /api/comments/:id - replies and likes cascade.
func (h *CommentHandler) Delete(c *gin.Context) {
	comment, ok := h.find(c)
	if !ok {
		return
	}
	if !auth.Authorize(comment.AuthorID, middleware.CurrentActor(c), auth.LevelOwner) {
		fail(c, apperr.Forbidden("Você não tem permissão para excluir este comentário"))
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(comment).Error; err != nil {
		fail(c, apperr.Internal("Erro ao excluir comentário", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comentário excluído com sucesso"})
}

// Approve PATCH /api/comments/:id/approve (moderators)
func (h *CommentHandler) Approve(c *gin.Context) {
	var req approveRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, ok := h.find(c)
	if !ok {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(comment).Update("is_approved", *req.Approved).Error; err != nil {
		fail(c, apperr.Internal("Erro ao moderar comentário", err))
		return
	}
	comment.IsApproved = *req.Approved
	msg := "Comentário aprovado"
	if !*req.Approved {
		msg = "Comentário reprovado"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "comment": comment})
}

// Pending GET /api/comments/pending (moderators)
func (h *CommentHandler) Pending(c *gin.Context) {
	p := pageParams(c)
	base := func() *gorm.DB {
		return h.db.Model(&models.Comment{}).Where("comments.is_approved = ?", false)
	}
	var comments []models.Comment
	p, err := paginate(c.Request.Context(), base, p, "comments.created_at DESC, comments.id DESC", &comments, preload("Author"))
	if err != nil {
		fail(c, apperr.Internal("Erro ao listar comentários pendentes", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "pagination": p})
}

// Like POST /api/comments/:id/like
func (h *CommentHandler) Like(c *gin.Context) {
	comment, ok := h.find(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)
	if !comment.IsApproved && !auth.Authorize(comment.AuthorID, actor, auth.LevelOwner) {
		fail(c, apperr.NotFound("Comentário não encontrado"))
		return
	}
	if comment.PromptID != nil {
		var prompt models.Prompt
		if err := h.db.WithContext(c.Request.Context()).First(&prompt, *comment.PromptID).Error; err != nil {
			fail(c, notFoundOr(err, "Comentário não encontrado"))
			return
		}
		if !canSeePrompt(&prompt, actor) {
			fail(c, apperr.NotFound("Comentário não encontrado"))
			return
		}
	}
	res, err := h.likes.ToggleComment(c.Request.Context(), actor.ID, comment.ID)
	if err != nil {
		fail(c, apperr.Internal("Erro ao curtir comentário", err))
		return
	}
	c.JSON(http.StatusOK, likeResponse(res))
}
