package handlers

import (
	"net/http"
	"strings"

	"pcprompts/internal/apperr"
	"pcprompts/internal/auth"
	"pcprompts/internal/middleware"
	"pcprompts/internal/models"
	"pcprompts/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PostHandler struct {
	db *gorm.DB
}

func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{db: db}
}

type postRequest struct {
	Content string `json:"content" binding:"required,min=1,max=10000"`
}

// List GET /api/discussions/:id/posts - oldest first.
func (h *PostHandler) List(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).Model(&models.Discussion{}).Where("id = ?", id).Count(&count).Error; err != nil {
		fail(c, apperr.Internal("Erro ao listar posts", err))
		return
	}
	if count == 0 {
		fail(c, apperr.NotFound("Discussão não encontrada"))
		return
	}

	base := func() *gorm.DB {
		return h.db.Model(&models.Post{}).Where("posts.discussion_id = ?", id)
	}
	var posts []models.Post
	p, err := paginate(ctx, base, pageParams(c), "posts.created_at ASC, posts.id ASC", &posts, preload("Author"))
	if err != nil {
		fail(c, apperr.Internal("Erro ao listar posts", err))
		return
	}
	for i := range posts {
		posts[i].ContentHTML = utils.RenderMarkdown(posts[i].Content)
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "pagination": p})
}

// Create POST /api/discussions/:id/posts - closed or locked threads only accept moderators.
func (h *PostHandler) Create(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req postRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	var d models.Discussion
	if err := h.db.WithContext(ctx).First(&d, id).Error; err != nil {
		fail(c, notFoundOr(err, "Discussão não encontrada"))
		return
	}
	if (!d.IsOpen || d.IsLocked) && !auth.ActorFromUser(user).Privileged() {
		fail(c, apperr.Forbidden("Esta discussão não aceita novas respostas"))
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		fail(c, apperr.Validation("A resposta não pode estar vazia"))
		return
	}
	post := models.Post{DiscussionID: d.ID, AuthorID: user.ID, Content: content}
	if err := h.db.WithContext(ctx).Create(&post).Error; err != nil {
		fail(c, apperr.Internal("Erro ao criar post", err))
		return
	}
	post.Author = user
	post.ContentHTML = utils.RenderMarkdown(post.Content)
	c.JSON(http.StatusCreated, gin.H{"message": "Resposta publicada com sucesso", "post": post})
}

func (h *PostHandler) findOwned(c *gin.Context, verb string) (*models.Post, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var post models.Post
	if err := h.db.WithContext(c.Request.Context()).Preload("Author").First(&post, id).Error; err != nil {
		fail(c, notFoundOr(err, "Post não encontrado"))
		return nil, false
	}
	if !auth.Authorize(post.AuthorID, middleware.CurrentActor(c), auth.LevelOwner) {
		fail(c, apperr.Forbidden("Você não tem permissão para "+verb+" este post"))
		return nil, false
	}
	return &post, true
}

// Update PUT /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req) {
		return
	}
	post, ok := h.findOwned(c, "editar")
	if !ok {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		fail(c, apperr.Validation("A resposta não pode estar vazia"))
		return
	}
	err := h.db.WithContext(c.Request.Context()).Model(post).Updates(map[string]any{
		"content":   content,
		"is_edited": true,
	}).Error
	if err != nil {
		fail(c, apperr.Internal("Erro ao atualizar post", err))
		return
	}
	post.Content, post.IsEdited = content, true
	post.ContentHTML = utils.RenderMarkdown(content)
	c.JSON(http.StatusOK, gin.H{"message": "Resposta atualizada com sucesso", "post": post})
}

// Delete DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	post, ok := h.findOwned(c, "excluir")
	if !ok {
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(&models.Post{}, post.ID).Error; err != nil {
		fail(c, apperr.Internal("Erro ao excluir post", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resposta excluída com sucesso"})
}
