package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"pcprompts/internal/apperr"
	"pcprompts/internal/auth"
	"pcprompts/internal/config"
	"pcprompts/internal/db"
	"pcprompts/internal/directory"
	"pcprompts/internal/middleware"
	"pcprompts/internal/models"
	"pcprompts/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	tokens      *auth.TokenManager
	domain      string
	frontendURL string
	directory   directory.Directory
	mailService *services.MailService
	verifier    auth.IdentityVerifier
	oauth       *oauth2.Config
}

func NewAuthHandler(gdb *gorm.DB, tokens *auth.TokenManager, cfg *config.Config, dir directory.Directory, mail *services.MailService, verifier auth.IdentityVerifier) *AuthHandler {
	if dir == nil {
		dir = directory.Empty{}
	}
	return &AuthHandler{
		db:          gdb,
		tokens:      tokens,
		domain:      cfg.InstitutionalDomain,
		frontendURL: cfg.FrontendURL,
		directory:   dir,
		mailService: mail,
		verifier:    verifier,
		oauth:       newGoogleOAuthConfig(cfg),
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"max=120"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) domainError() error {
	return apperr.Validation("Apenas e-mails institucionais (@" + h.domain + ") são permitidos")
}

// applyDirectory fills blank profile fields from the staff directory.
func (h *AuthHandler) applyDirectory(ctx context.Context, user *models.User) {
	entry, ok := h.directory.Lookup(ctx, user.Email)
	if !ok {
		return
	}
	if user.Name == "" {
		user.Name = entry.Name
	}
	if user.Registration == "" {
		user.Registration = entry.Registration
	}
	if user.Position == "" {
		user.Position = entry.Position
	}
	if user.Unit == "" {
		user.Unit = entry.Unit
	}
}

func (h *AuthHandler) issue(user *models.User) (string, error) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		return "", apperr.Internal("Erro ao gerar token de acesso", err)
	}
	return token, nil
}

func (h *AuthHandler) touchLogin(ctx context.Context, user *models.User) {
	now := time.Now()
	if err := h.db.WithContext(ctx).Model(user).UpdateColumn("last_login_at", now).Error; err != nil {
		zap.L().Warn("failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
		return
	}
	user.LastLoginAt = &now
}

// Register POST /api/auth/register - institutional emails only.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	email := auth.NormalizeEmail(req.Email)
	if !auth.InstitutionalEmail(email, h.domain) {
		fail(c, h.domainError())
		return
	}
	// checked up front so a misconfigured server never leaves half-registered accounts
	if !h.tokens.Configured() {
		fail(c, apperr.Internal("Erro de configuração do servidor", auth.ErrMissingSecret))
		return
	}

	var existing int64
	if err := h.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		fail(c, apperr.Internal("Erro ao verificar e-mail", err))
		return
	}
	if existing > 0 {
		fail(c, apperr.Conflict("E-mail já cadastrado"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, apperr.Internal("Erro ao processar senha", err))
		return
	}

	user := models.User{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(req.Name),
		IsActive: true,
	}
	h.applyDirectory(ctx, &user)
	if user.Name == "" {
		user.Name = auth.NameFromEmail(email)
	}

	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		if db.IsDuplicateKey(err) {
			fail(c, apperr.Conflict("E-mail já cadastrado"))
			return
		}
		fail(c, apperr.Internal("Erro ao criar usuário", err))
		return
	}

	token, err := h.issue(&user)
	if err != nil {
		fail(c, err)
		return
	}
	h.mailService.SendWelcomeEmail(user.Email, user.Name)

	c.JSON(http.StatusCreated, gin.H{"message": "Usuário registrado com sucesso", "token": token, "user": user})
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	var user models.User
	err := h.db.WithContext(ctx).Preload("Specialty").Where("email = ?", auth.NormalizeEmail(req.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, apperr.Unauthenticated("E-mail ou senha inválidos"))
			return
		}
		fail(c, apperr.Internal("Erro ao realizar login", err))
		return
	}
	if !auth.CheckPasswordHash(req.Password, user.Password) {
		fail(c, apperr.Unauthenticated("E-mail ou senha inválidos"))
		return
	}
	if !user.IsActive {
		fail(c, apperr.Forbidden("Conta desativada. Entre em contato com o administrador."))
		return
	}

	token, err := h.issue(&user)
	if err != nil {
		fail(c, err)
		return
	}
	h.touchLogin(ctx, &user)

	c.JSON(http.StatusOK, gin.H{"message": "Login realizado com sucesso", "token": token, "user": user})
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user.SpecialtyID != nil && user.Specialty == nil {
		var s models.Specialty
		if err := h.db.WithContext(c.Request.Context()).First(&s, *user.SpecialtyID).Error; err == nil {
			user.Specialty = &s
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
