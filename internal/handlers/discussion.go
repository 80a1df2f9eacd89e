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

type DiscussionHandler struct {
	db *gorm.DB
}

func NewDiscussionHandler(db *gorm.DB) *DiscussionHandler {
	return &DiscussionHandler{db: db}
}

type discussionRequest struct {
	Title   string `json:"title" binding:"required,min=3,max=200"`
	Content string `json:"content" binding:"required,min=1"`
	IsOpen  *bool  `json:"isOpen"`
}

func (h *DiscussionHandler) fillPostCounts(ctx context.Context, discussions []models.Discussion) error {
	ids := idsOf(discussions, func(d *models.Discussion) uint { return d.ID })
	counts, err := services.CountBy(ctx, h.db, &models.Post{}, "discussion_id", ids)
	if err != nil {
		return err
	}
	for i := range discussions {
		discussions[i].PostsCount = counts[discussions[i].ID]
	}
	return nil
}

// List GET /api/discussions - pinned first, then newest.
func (h *DiscussionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	p := pageParams(c)
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	status := c.Query("status")

	base := func() *gorm.DB {
		q := h.db.Model(&models.Discussion{})
		if search != "" {
			like := utils.ContainsPattern(search)
			q = q.Where(`(LOWER(discussions.title) LIKE ? ESCAPE '\' OR LOWER(discussions.content) LIKE ? ESCAPE '\')`, like, like)
		}
		switch status {
		case "open":
			q = q.Where("discussions.is_open = ?", true)
		case "closed":
			q = q.Where("discussions.is_open = ?", false)
		}
		return q
	}

	var discussions []models.Discussion
	p, err := paginate(ctx, base, p, "discussions.is_pinned DESC, discussions.created_at DESC, discussions.id DESC", &discussions, preload("Author"))
	if err != nil {
		fail(c, apperr.Internal("Erro ao listar discussões", err))
		return
	}
	if err := h.fillPostCounts(ctx, discussions); err != nil {
		fail(c, apperr.Internal("Erro ao listar discussões", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussions": discussions, "pagination": p})
}

func (h *DiscussionHandler) find(c *gin.Context) (*models.Discussion, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var d models.Discussion
	if err := h.db.WithContext(c.Request.Context()).Preload("Author").First(&d, id).Error; err != nil {
		fail(c, notFoundOr(err, "Discussão não encontrada"))
		return nil, false
	}
	return &d, true
}

// Get GET /api/discussions/:id - counts a view.
func (h *DiscussionHandler) Get(c *gin.Context) {
	d, ok := h.find(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(d).UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		fail(c, apperr.Internal("Erro ao registrar visualização", err))
		return
	}
	d.Views++

	list := []models.Discussion{*d}
	if err := h.fillPostCounts(ctx, list); err != nil {
		fail(c, apperr.Internal("Erro ao carregar discussão", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussion": list[0], "contentHtml": utils.RenderMarkdown(d.Content)})
}

// Create POST /api/discussions
func (h *DiscussionHandler) Create(c *gin.Context) {
	var req discussionRequest
	if !bindJSON(c, &req) {
		return
	}
	user := middleware.CurrentUser(c)

	d := models.Discussion{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		AuthorID: user.ID,
		IsOpen:   true,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&d).Error; err != nil {
		fail(c, apperr.Internal("Erro ao criar discussão", err))
		return
	}
	d.Author = user
	c.JSON(http.StatusCreated, gin.H{"message": "Discussão criada com sucesso", "discussion": d})
}

// Update PUT /api/discussions/:id - owner or moderator.
func (h *DiscussionHandler) Update(c *gin.Context) {
	var req discussionRequest
	if !bindJSON(c, &req) {
		return
	}
	d, ok := h.find(c)
	if !ok {
		return
	}
	if !auth.Authorize(d.AuthorID, middleware.CurrentActor(c), auth.LevelOwner) {
		fail(c, apperr.Forbidden("Você não tem permissão para editar esta discussão"))
		return
	}

	d.Title = strings.TrimSpace(req.Title)
	d.Content = req.Content
	if req.IsOpen != nil {
		d.IsOpen = *req.IsOpen
	}
	err := h.db.WithContext(c.Request.Context()).Model(d).Updates(map[string]any{
		"title":   d.Title,
		"content": d.Content,
		"is_open": d.IsOpen,
	}).Error
	if err != nil {
		fail(c, apperr.Internal("Erro ao atualizar discussão", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Discussão atualizada com sucesso", "discussion": d})
}

// Delete DELETE /api/discussions/:id - posts and their comments cascade.
func (h *DiscussionHandler) Delete(c *gin.Context) {
	d, ok := h.find(c)
	if !ok {
		return
	}
	if !auth.Authorize(d.AuthorID, middleware.CurrentActor(c), auth.LevelOwner) {
		fail(c, apperr.Forbidden("Você não tem permissão para excluir esta discussão"))
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(&models.Discussion{}, d.ID).Error; err != nil {
		fail(c, apperr.Internal("Erro ao excluir discussão", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Discussão excluída com sucesso"})
}

type pinRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

type lockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// Pin PATCH /api/discussions/:id/pin (moderators)
func (h *DiscussionHandler) Pin(c *gin.Context) {
	var req pinRequest
	if !bindJSON(c, &req) {
		return
	}
	h.setFlag(c, "is_pinned", *req.Pinned, func(d *models.Discussion) { d.IsPinned = *req.Pinned })
}

// Lock PATCH /api/discussions/:id/lock (moderators)
func (h *DiscussionHandler) Lock(c *gin.Context) {
	var req lockRequest
	if !bindJSON(c, &req) {
		return
	}
	h.setFlag(c, "is_locked", *req.Locked, func(d *models.Discussion) { d.IsLocked = *req.Locked })
}

func (h *DiscussionHandler) setFlag(c *gin.Context, column string, value bool, apply func(*models.Discussion)) {
	d, ok := h.find(c)
	if !ok {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(d).Update(column, value).Error; err != nil {
		fail(c, apperr.Internal("Erro ao atualizar discussão", err))
		return
	}
	apply(d)
	c.JSON(http.StatusOK, gin.H{"message": "Discussão atualizada com sucesso", "discussion": d})
}
