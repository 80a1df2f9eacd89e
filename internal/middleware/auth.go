package middleware

import (
	"errors"
	"strings"

	"pcprompts/internal/apperr"
	"pcprompts/internal/auth"
	"pcprompts/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const CurrentUserKey = "currentUser"

// Authenticator resolves bearer tokens into users.
type Authenticator struct {
	db     *gorm.DB
	tokens *auth.TokenManager
}

func NewAuthenticator(db *gorm.DB, tokens *auth.TokenManager) *Authenticator {
	return &Authenticator{db: db, tokens: tokens}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	return raw, ok && raw != ""
}

func (a *Authenticator) resolve(c *gin.Context) (*models.User, error) {
	raw, ok := bearerToken(c)
	if !ok {
		return nil, apperr.Unauthenticated("Token de acesso não fornecido")
	}

	userID, err := a.tokens.Verify(raw)
	switch {
	case errors.Is(err, auth.ErrMissingSecret):
		return nil, apperr.Internal("Erro de configuração do servidor", err)
	case errors.Is(err, auth.ErrExpiredToken):
		return nil, apperr.Unauthenticated("Token expirado")
	case err != nil:
		return nil, apperr.Unauthenticated("Token inválido")
	}

	var user models.User
	if err := a.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthenticated("Usuário não encontrado")
		}
		return nil, apperr.Internal("Erro ao verificar autenticação", err)
	}
	if !user.IsActive {
		return nil, apperr.Unauthenticated("Conta desativada")
	}
	return &user, nil
}

// AuthRequired rejects the request unless a valid token for an active user is present.
func (a *Authenticator) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.resolve(c)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when the token is valid; any failure leaves the request anonymous.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := bearerToken(c); ok {
			user, err := a.resolve(c)
			if err == nil {
				c.Set(CurrentUserKey, user)
			} else if e, ok := apperr.As(err); ok && e.Kind == apperr.KindInternal {
				zap.L().Warn("optional auth failed", zap.Error(err))
			}
		}
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return roleGate(auth.LevelAdmin, "Acesso restrito a administradores")
}

// ModeratorRequired must run after AuthRequired. Admins pass as well.
func ModeratorRequired() gin.HandlerFunc {
	return roleGate(auth.LevelModerator, "Acesso restrito a moderadores")
}

func roleGate(level auth.Level, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			abort(c, apperr.Unauthenticated("Autenticação necessária"))
			return
		}
		if !auth.Authorize(0, actor, level) {
			abort(c, apperr.Forbidden(message))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CurrentUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func CurrentActor(c *gin.Context) *auth.Actor {
	return auth.ActorFromUser(CurrentUser(c))
}

// CurrentUserID is 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
