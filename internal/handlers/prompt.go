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

const maxPromptTags = 10

var promptSorts = map[string]string{
	"recent":  "prompts.created_at DESC, prompts.id DESC",
	"views":   "prompts.views DESC, prompts.id DESC",
	"popular": "(SELECT COUNT(*) FROM prompt_likes WHERE prompt_likes.prompt_id = prompts.id) DESC, prompts.id DESC",
}

type PromptHandler struct {
	db    *gorm.DB
	likes *services.LikeService
}

func NewPromptHandler(db *gorm.DB, likes *services.LikeService) *PromptHandler {
	return &PromptHandler{db: db, likes: likes}
}

type promptRequest struct {
	Title       string   `json:"title" binding:"required,min=3,max=200"`
	Description string   `json:"description" binding:"max=1000"`
	Content     string   `json:"content" binding:"required,min=10"`
	SpecialtyID *uint    `json:"specialtyId"`
	Tags        []string `json:"tags" binding:"max=20"`
	IsPublic    *bool    `json:"isPublic"`
}

// visiblePrompts: public and approved for everyone, plus the caller's own, plus
// everything for moderators.
func visiblePrompts(actor *auth.Actor) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		switch {
		case actor.Privileged():
			return tx
		case actor != nil:
			return tx.Where("((prompts.is_public = ? AND prompts.is_approved = ?) OR prompts.author_id = ?)", true, true, actor.ID)
		default:
			return tx.Where("prompts.is_public = ? AND prompts.is_approved = ?", true, true)
		}
	}
}

func canSeePrompt(p *models.Prompt, actor *auth.Actor) bool {
	return (p.IsPublic && p.IsApproved) || auth.Authorize(p.AuthorID, actor, auth.LevelOwner)
}

// decorate fills the per-request counters on a page of prompts.
func (h *PromptHandler) decorate(ctx context.Context, prompts []models.Prompt, userID uint) error {
	if len(prompts) == 0 {
		return nil
	}
	ids := idsOf(prompts, func(p *models.Prompt) uint { return p.ID })

	likes, err := services.CountBy(ctx, h.db, &models.PromptLike{}, "prompt_id", ids)
	if err != nil {
		return err
	}
	comments, err := services.CountBy(ctx, h.db.Where("is_approved = ?", true), &models.Comment{}, "prompt_id", ids)
	if err != nil {
		return err
	}
	liked, err := h.likes.LikedBy(ctx, &models.PromptLike{}, "prompt_id", userID, ids)
	if err != nil {
		return err
	}
	for i := range prompts {
		prompts[i].LikesCount = likes[prompts[i].ID]
		prompts[i].CommentsCount = comments[prompts[i].ID]
		prompts[i].IsLiked = liked[prompts[i].ID]
	}
	return nil
}

// List GET /api/prompts
func (h *PromptHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)
	p := pageParams(c)

	order, ok := promptSorts[c.DefaultQuery("sort", "recent")]
	if !ok {
		order = promptSorts["recent"]
	}

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	tag := strings.ToLower(strings.TrimSpace(c.Query("tag")))
	specialtyID, hasSpecialty := utils.ParseID(c.Query("specialtyId"))
	authorID, hasAuthor := utils.ParseID(c.Query("authorId"))

	base := func() *gorm.DB {
		q := h.db.Model(&models.Prompt{}).Scopes(visiblePrompts(actor))
		if search != "" {
			like := utils.ContainsPattern(search)
			q = q.Where(`(LOWER(prompts.title) LIKE ? ESCAPE '\' OR LOWER(prompts.description) LIKE ? ESCAPE '\' OR LOWER(prompts.content) LIKE ? ESCAPE '\')`, like, like, like)
		}
		if tag != "" {
			q = q.Where(`prompts.tags LIKE ? ESCAPE '\'`, `%"`+utils.EscapeLike(tag)+`"%`)
		}
		if hasSpecialty {
			q = q.Where("prompts.specialty_id = ?", specialtyID)
		}
		if hasAuthor {
			q = q.Where("prompts.author_id = ?", authorID)
		}
		return q
	}

	var prompts []models.Prompt
	p, err := paginate(ctx, base, p, order, &prompts, preload("Author", "Specialty"))
	if err != nil {
		fail(c, apperr.Internal("Erro ao listar prompts", err))
		return
	}
	if err := h.decorate(ctx, prompts, middleware.CurrentUserID(c)); err != nil {
		fail(c, apperr.Internal("Erro ao listar prompts", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"prompts": prompts, "pagination": p})
}

func (h *PromptHandler) load(ctx context.Context, id uint) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := h.db.WithContext(ctx).Preload("Author").Preload("Specialty").First(&prompt, id).Error; err != nil {
		return nil, notFoundOr(err, "Prompt não encontrado")
	}
	return &prompt, nil
}

// Get GET /api/prompts/:id - counts a view.
func (h *PromptHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	prompt, err := h.load(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !canSeePrompt(prompt, middleware.CurrentActor(c)) {
		fail(c, apperr.NotFound("Prompt não encontrado"))
		return
	}

	if err := h.db.WithContext(ctx).Model(prompt).UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		fail(c, apperr.Internal("Erro ao registrar visualização", err))
		return
	}
	prompt.Views++

	list := []models.Prompt{*prompt}
	if err := h.decorate(ctx, list, middleware.CurrentUserID(c)); err != nil {
		fail(c, apperr.Internal("Erro ao carregar prompt", err))
		return
	}
	out := list[0]
	out.ContentHTML = utils.RenderMarkdown(out.Content)

	c.JSON(http.StatusOK, gin.H{"prompt": out})
}

func (h *PromptHandler) checkSpecialty(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := h.db.WithContext(ctx).Model(&models.Specialty{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return apperr.Internal("Erro ao verificar especialidade", err)
	}
	if count == 0 {
		return apperr.Validation("Especialidade não encontrada")
	}
	return nil
}

// Create POST /api/prompts
func (h *PromptHandler) Create(c *gin.Context) {
	var req promptRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	if err := h.checkSpecialty(ctx, req.SpecialtyID); err != nil {
		fail(c, err)
		return
	}

	prompt := models.Prompt{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Content:     req.Content,
		AuthorID:    user.ID,
		SpecialtyID: req.SpecialtyID,
		Tags:        utils.NormalizeTags(req.Tags, maxPromptTags),
		IsPublic:    req.IsPublic == nil || *req.IsPublic,
		IsApproved:  true,
	}
	if err := h.db.WithContext(ctx).Create(&prompt).Error; err != nil {
		fail(c, apperr.Internal("Erro ao criar prompt", err))
		return
	}

	created, err := h.load(ctx, prompt.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Prompt criado com sucesso", "prompt": created})
}

// Update PUT /api/prompts/:id - owner or moderator. Non-privileged edits go back to review.
func (h *PromptHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req promptRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)

	prompt, err := h.load(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !auth.Authorize(prompt.AuthorID, actor, auth.LevelOwner) {
		fail(c, apperr.Forbidden("Você não tem permissão para editar este prompt"))
		return
	}
	if err := h.checkSpecialty(ctx, req.SpecialtyID); err != nil {
		fail(c, err)
		return
	}

	if req.IsPublic != nil {
		prompt.IsPublic = *req.IsPublic
	}
	prompt.Title = strings.TrimSpace(req.Title)
	prompt.Description = strings.TrimSpace(req.Description)
	prompt.Content = req.Content
	prompt.SpecialtyID = req.SpecialtyID
	prompt.Tags = utils.NormalizeTags(req.Tags, maxPromptTags)
	prompt.IsApproved = auth.ApprovalAfterEdit(prompt.IsApproved, actor)
	prompt.Author, prompt.Specialty = nil, nil

	err = h.db.WithContext(ctx).Model(prompt).
		Select("title", "description", "content", "specialty_id", "tags", "is_public", "is_approved").
		Updates(prompt).Error
	if err != nil {
		fail(c, apperr.Internal("Erro ao atualizar prompt", err))
		return
	}

	updated, err := h.load(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prompt atualizado com sucesso", "prompt": updated})
}

// Delete DELETE /api/prompts/:id - comments and likes go with it.
func (h *PromptHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var prompt models.Prompt
	if err := h.db.WithContext(ctx).First(&prompt, id).Error; err != nil {
		fail(c, notFoundOr(err, "Prompt não encontrado"))
		return
	}
	if !auth.Authorize(prompt.AuthorID, middleware.CurrentActor(c), auth.LevelOwner) {
		fail(c, apperr.Forbidden("Você não tem permissão para excluir este prompt"))
		return
	}
	if err := h.db.WithContext(ctx).Delete(&prompt).Error; err != nil {
		fail(c, apperr.Internal("Erro ao excluir prompt", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prompt excluído com sucesso"})
}

type approveRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// Approve PATCH /api/prompts/:id/approve (moderators)
func (h *PromptHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req approveRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	res := h.db.WithContext(ctx).Model(&models.Prompt{}).Where("id = ?", id).Update("is_approved", *req.Approved)
	if res.Error != nil {
		fail(c, apperr.Internal("Erro ao moderar prompt", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		fail(c, apperr.NotFound("Prompt não encontrado"))
		return
	}

	prompt, err := h.load(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	msg := "Prompt aprovado"
	if !*req.Approved {
		msg = "Prompt reprovado"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "prompt": prompt})
}

// Like POST /api/prompts/:id/like toggles the caller's like.
func (h *PromptHandler) Like(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)

	var prompt models.Prompt
	if err := h.db.WithContext(ctx).First(&prompt, id).Error; err != nil {
		fail(c, notFoundOr(err, "Prompt não encontrado"))
		return
	}
	if !canSeePrompt(&prompt, actor) {
		fail(c, apperr.NotFound("Prompt não encontrado"))
		return
	}

	res, err := h.likes.TogglePrompt(ctx, actor.ID, id)
	if err != nil {
		fail(c, apperr.Internal("Erro ao curtir prompt", err))
		return
	}
	c.JSON(http.StatusOK, likeResponse(res))
}

func likeResponse(res services.LikeResult) gin.H {
	msg := "Curtida removida"
	if res.Liked {
		msg = "Curtida adicionada"
	}
	return gin.H{"liked": res.Liked, "likesCount": res.LikesCount, "message": msg}
}
