package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"pcprompts/internal/apperr"
	"pcprompts/internal/auth"
	"pcprompts/internal/middleware"
	"pcprompts/internal/models"
	"pcprompts/internal/services"
	"pcprompts/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type UserHandler struct {
	db            *gorm.DB
	uploads       *services.UploadService
	maxAvatarSize int64
}

func NewUserHandler(db *gorm.DB, uploads *services.UploadService, maxAvatarSize int64) *UserHandler {
	return &UserHandler{db: db, uploads: uploads, maxAvatarSize: maxAvatarSize}
}

type profileStats struct {
	PromptsCount     int64 `json:"promptsCount"`
	DiscussionsCount int64 `json:"discussionsCount"`
	CommentsCount    int64 `json:"commentsCount"`
	LikesReceived    int64 `json:"likesReceived"`
}

// userStats gathers a profile's activity counters in parallel.
func (h *UserHandler) userStats(ctx context.Context, userID uint) (profileStats, error) {
	var s profileStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.db.WithContext(gctx).Model(&models.Prompt{}).Where("author_id = ?", userID).Count(&s.PromptsCount).Error
	})
	g.Go(func() error {
		return h.db.WithContext(gctx).Model(&models.Discussion{}).Where("author_id = ?", userID).Count(&s.DiscussionsCount).Error
	})
	g.Go(func() error {
		return h.db.WithContext(gctx).Model(&models.Comment{}).Where("author_id = ?", userID).Count(&s.CommentsCount).Error
	})
	g.Go(func() error {
		return h.db.WithContext(gctx).Model(&models.PromptLike{}).
			Joins("JOIN prompts ON prompts.id = prompt_likes.prompt_id").
			Where("prompts.author_id = ?", userID).
			Count(&s.LikesReceived).Error
	})
	return s, g.Wait()
}

// List GET /api/users (admin)
func (h *UserHandler) List(c *gin.Context) {
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	role := c.Query("role")
	active, activeErr := strconv.ParseBool(c.Query("active"))

	base := func() *gorm.DB {
		q := h.db.Model(&models.User{})
		if search != "" {
			like := utils.ContainsPattern(search)
			q = q.Where(`(LOWER(users.name) LIKE ? ESCAPE '\' OR LOWER(users.email) LIKE ? ESCAPE '\' OR LOWER(users.registration) LIKE ? ESCAPE '\')`, like, like, like)
		}
		switch role {
		case "admin":
			q = q.Where("users.is_admin = ?", true)
		case "moderator":
			q = q.Where("users.is_moderator = ?", true)
		case "user":
			q = q.Where("users.is_admin = ? AND users.is_moderator = ?", false, false)
		}
		if activeErr == nil {
			q = q.Where("users.is_active = ?", active)
		}
		return q
	}

	var users []models.User
	p, err := paginate(c.Request.Context(), base, pageParams(c), "users.created_at DESC, users.id DESC", &users, preload("Specialty"))
	if err != nil {
		fail(c, apperr.Internal("Erro ao listar usuários", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "pagination": p})
}

// Get GET /api/users/:id - profile plus activity counters.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var user models.User
	if err := h.db.WithContext(ctx).Preload("Specialty").First(&user, id).Error; err != nil {
		fail(c, notFoundOr(err, "Usuário não encontrado"))
		return
	}
	stats, err := h.userStats(ctx, user.ID)
	if err != nil {
		fail(c, apperr.Internal("Erro ao carregar perfil", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "stats": stats})
}

type profileRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=120"`
	Registration string `json:"registration" binding:"max=30"`
	Position     string `json:"position" binding:"max=80"`
	Unit         string `json:"unit" binding:"max=120"`
	Bio          string `json:"bio" binding:"max=300"`
	SpecialtyID  *uint  `json:"specialtyId"`
}

// UpdateMe PUT /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	if req.SpecialtyID != nil {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Specialty{}).Where("id = ?", *req.SpecialtyID).Count(&count).Error; err != nil {
			fail(c, apperr.Internal("Erro ao verificar especialidade", err))
			return
		}
		if count == 0 {
			fail(c, apperr.Validation("Especialidade não encontrada"))
			return
		}
	}

	err := h.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"name":         strings.TrimSpace(req.Name),
		"registration": strings.TrimSpace(req.Registration),
		"position":     strings.TrimSpace(req.Position),
		"unit":         strings.TrimSpace(req.Unit),
		"bio":          strings.TrimSpace(req.Bio),
		"specialty_id": req.SpecialtyID,
	}).Error
	if err != nil {
		fail(c, apperr.Internal("Erro ao atualizar perfil", err))
		return
	}

	var updated models.User
	if err := h.db.WithContext(ctx).Preload("Specialty").First(&updated, user.ID).Error; err != nil {
		fail(c, notFoundOr(err, "Usuário não encontrado"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Perfil atualizado com sucesso", "user": updated})
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// ChangePassword PUT /api/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if !bindJSON(c, &req) {
		return
	}
	user := middleware.CurrentUser(c)
	if !auth.CheckPasswordHash(req.CurrentPassword, user.Password) {
		fail(c, apperr.Validation("Senha atual incorreta"))
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		fail(c, apperr.Internal("Erro ao alterar senha", err))
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(user).Update("password", hash).Error; err != nil {
		fail(c, apperr.Internal("Erro ao alterar senha", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Senha alterada com sucesso"})
}

// UploadAvatar POST /api/users/me/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user := middleware.CurrentUser(c)
	path, ok := receiveImage(c, h.uploads, "avatar", services.UploadAvatars, h.maxAvatarSize)
	if !ok {
		return
	}
	// Update writes the new value back into user
	previous := user.Avatar
	if err := h.db.WithContext(c.Request.Context()).Model(user).Update("avatar", path).Error; err != nil {
		h.uploads.Remove(path)
		fail(c, apperr.Internal("Erro ao salvar avatar", err))
		return
	}
	user.Avatar = path
	if previous != path {
		h.uploads.Remove(previous)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avatar atualizado com sucesso", "avatar": path, "user": user})
}

type rolesRequest struct {
	IsAdmin     *bool `json:"isAdmin" binding:"required"`
	IsModerator *bool `json:"isModerator" binding:"required"`
}

type statusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func (h *UserHandler) target(c *gin.Context) (*models.User, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		fail(c, notFoundOr(err, "Usuário não encontrado"))
		return nil, false
	}
	return &user, true
}

// SetRoles PATCH /api/users/:id/roles (admin) - admins cannot demote themselves.
func (h *UserHandler) SetRoles(c *gin.Context) {
	var req rolesRequest
	if !bindJSON(c, &req) {
		return
	}
	user, ok := h.target(c)
	if !ok {
		return
	}
	if user.ID == middleware.CurrentUserID(c) && !*req.IsAdmin {
		fail(c, apperr.Validation("Você não pode remover seu próprio acesso de administrador"))
		return
	}
	err := h.db.WithContext(c.Request.Context()).Model(user).Updates(map[string]any{
		"is_admin":     *req.IsAdmin,
		"is_moderator": *req.IsModerator,
	}).Error
	if err != nil {
		fail(c, apperr.Internal("Erro ao atualizar permissões", err))
		return
	}
	user.IsAdmin, user.IsModerator = *req.IsAdmin, *req.IsModerator
	c.JSON(http.StatusOK, gin.H{"message": "Permissões atualizadas com sucesso", "user": user})
}

// SetStatus PATCH /api/users/:id/status (admin) - accounts are deactivated, never deleted.
func (h *UserHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	user, ok := h.target(c)
	if !ok {
		return
	}
	if user.ID == middleware.CurrentUserID(c) && !*req.IsActive {
		fail(c, apperr.Validation("Você não pode desativar sua própria conta"))
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(user).Update("is_active", *req.IsActive).Error; err != nil {
		fail(c, apperr.Internal("Erro ao atualizar status", err))
		return
	}
	user.IsActive = *req.IsActive
	msg := "Usuário ativado com sucesso"
	if !user.IsActive {
		msg = "Usuário desativado com sucesso"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "user": user})
}
