package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"

	"pcprompts/internal/apperr"
	"pcprompts/internal/auth"
	"pcprompts/internal/config"
	"pcprompts/internal/db"
	"pcprompts/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const oauthStateKey = "oauth_state"

// newGoogleOAuthConfig returns nil when the code flow is not configured.
func newGoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.SiteURL + "/api/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

type googleRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// verifyIdentity checks the ID token and the institutional rule.
func (h *AuthHandler) verifyIdentity(ctx context.Context, raw string) (*auth.FederatedIdentity, error) {
	if h.verifier == nil {
		return nil, apperr.Validation("Login com Google não está configurado")
	}
	identity, err := h.verifier.Verify(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrFederatedDisabled) {
			return nil, apperr.Validation("Login com Google não está configurado")
		}
		return nil, apperr.Unauthenticated("Token do Google inválido")
	}
	if !identity.EmailVerified {
		return nil, apperr.Validation("E-mail do Google não verificado")
	}
	if !auth.InstitutionalEmail(identity.Email, h.domain) {
		return nil, h.domainError()
	}
	return identity, nil
}

// findOrCreateFederated resolves an identity to a user: by google id, then by email
// (linking the google id), else a new account. Repeated logins land on the same row;
// a concurrent first login that loses the insert race re-reads the winner.
func (h *AuthHandler) findOrCreateFederated(ctx context.Context, id *auth.FederatedIdentity) (*models.User, error) {
	tx := h.db.WithContext(ctx)

	var user models.User
	err := tx.Where("google_id = ?", id.Subject).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if user, err := h.linkByEmail(ctx, id); err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	user = models.User{
		Email:    id.Email,
		Name:     id.Name,
		Avatar:   id.Picture,
		GoogleID: id.Subject,
		IsActive: true,
	}
	h.applyDirectory(ctx, &user)
	if user.Name == "" {
		user.Name = auth.NameFromEmail(id.Email)
	}
	if err := tx.Create(&user).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return h.linkByEmail(ctx, id)
		}
		return nil, err
	}
	return &user, nil
}

func (h *AuthHandler) linkByEmail(ctx context.Context, id *auth.FederatedIdentity) (*models.User, error) {
	tx := h.db.WithContext(ctx)
	var user models.User
	if err := tx.Where("email = ?", id.Email).First(&user).Error; err != nil {
		return nil, err
	}
	if user.GoogleID != id.Subject {
		if err := tx.Model(&user).Update("google_id", id.Subject).Error; err != nil {
			return nil, err
		}
		user.GoogleID = id.Subject
	}
	return &user, nil
}

// federatedLogin is shared by the ID-token endpoint and the redirect callback.
func (h *AuthHandler) federatedLogin(ctx context.Context, raw string) (*models.User, string, error) {
	identity, err := h.verifyIdentity(ctx, raw)
	if err != nil {
		return nil, "", err
	}
	user, err := h.findOrCreateFederated(ctx, identity)
	if err != nil {
		return nil, "", apperr.Internal("Erro ao autenticar com Google", err)
	}
	if !user.IsActive {
		return nil, "", apperr.Forbidden("Conta desativada. Entre em contato com o administrador.")
	}
	token, err := h.issue(user)
	if err != nil {
		return nil, "", err
	}
	h.touchLogin(ctx, user)
	return user, token, nil
}

// Google POST /api/auth/google {credential}
func (h *AuthHandler) Google(c *gin.Context) {
	var req googleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, token, err := h.federatedLogin(c.Request.Context(), req.Credential)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login realizado com sucesso", "token": token, "user": user})
}

// GoogleLogin GET /api/auth/google/login starts the authorization-code flow.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.oauth == nil {
		fail(c, apperr.Validation("Login com Google não está configurado"))
		return
	}
	state, err := generateStateToken()
	if err != nil {
		fail(c, apperr.Internal("Erro ao gerar estado OAuth", err))
		return
	}

	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	if err := session.Save(); err != nil {
		fail(c, apperr.Internal("Erro ao salvar sessão", err))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

func (h *AuthHandler) redirectFrontendError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, h.frontendURL+"/login?error="+url.QueryEscape(code))
}

// GoogleCallback GET /api/auth/google/callback hands the token to the SPA in the URL fragment.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.oauth == nil {
		h.redirectFrontendError(c, "google_disabled")
		return
	}

	session := sessions.Default(c)
	saved, _ := session.Get(oauthStateKey).(string)
	session.Delete(oauthStateKey)
	_ = session.Save()

	if saved == "" || c.Query("state") != saved {
		h.redirectFrontendError(c, "invalid_state")
		return
	}
	code := c.Query("code")
	if code == "" {
		h.redirectFrontendError(c, "no_code")
		return
	}

	ctx := c.Request.Context()
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		zap.L().Warn("google token exchange failed", zap.Error(err))
		h.redirectFrontendError(c, "token_exchange_failed")
		return
	}
	rawID, _ := tok.Extra("id_token").(string)
	if rawID == "" {
		h.redirectFrontendError(c, "no_id_token")
		return
	}

	_, token, err := h.federatedLogin(ctx, rawID)
	if err != nil {
		reason := "login_failed"
		if e, ok := apperr.As(err); ok && e.Kind == apperr.KindForbidden {
			reason = "account_disabled"
		}
		h.redirectFrontendError(c, reason)
		return
	}

	c.Redirect(http.StatusFound, h.frontendURL+"/auth/callback#token="+url.QueryEscape(token))
}
