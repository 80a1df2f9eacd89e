package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"pcprompts/internal/apperr"
	"pcprompts/internal/auth"
	"pcprompts/internal/config"
	"pcprompts/internal/models"
	"pcprompts/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(production bool, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), production))
	r.Use(mw...)
	return r
}

func TestRateLimiterWindow(t *testing.T) {
	l := NewRateLimiter(config.RateLimitConfig{Enabled: true, Window: time.Minute, Max: 2})
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	ok, _, _ := l.Allow("1.1.1.1")
	assert.True(t, ok)
	ok, remaining, _ := l.Allow("1.1.1.1")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, retry := l.Allow("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _, _ = l.Allow("2.2.2.2")
	assert.True(t, ok, "other clients are unaffected")

	now = now.Add(time.Minute)
	ok, _, _ = l.Allow("1.1.1.1")
	assert.True(t, ok, "new window")
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewRateLimiter(config.RateLimitConfig{
		Enabled: true, Window: 15 * time.Minute, Max: 1, Exempt: []string{"/api/auth/me"},
	})
	r := newEngine(true, l.Middleware())
	r.GET("/api/prompts", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/auth/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, do("/api/prompts").Code)
	w := do("/api/prompts")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "900", w.Header().Get("Retry-After"))
	assert.NotContains(t, w.Body.String(), "details")

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do("/api/auth/me").Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	l := NewRateLimiter(config.RateLimitConfig{Enabled: false, Window: time.Minute, Max: 1})
	r := newEngine(false, l.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	gdb := testutil.NewDB(t)
	active := testutil.CreateUser(t, gdb, "ativo@pc.sc.gov.br")
	inactive := testutil.CreateUser(t, gdb, "inativo@pc.sc.gov.br", func(u *models.User) { u.IsActive = false })
	mod := testutil.CreateUser(t, gdb, "mod@pc.sc.gov.br", func(u *models.User) { u.IsModerator = true })

	tokens := auth.NewTokenManager("segredo", time.Hour)
	a := NewAuthenticator(gdb, tokens)

	r := newEngine(false)
	r.GET("/required", a.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c)})
	})
	r.GET("/optional", a.OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c)})
	})
	r.GET("/mod", a.AuthRequired(), ModeratorRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", a.AuthRequired(), AdminRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	token := func(id uint) string {
		tok, err := tokens.Issue(id)
		require.NoError(t, err)
		return "Bearer " + tok
	}
	do := func(path, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("/required", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/required", "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/required", "Token "+strings.TrimPrefix(token(active.ID), "Bearer ")).Code)
	assert.Equal(t, http.StatusUnauthorized, do("/required", token(inactive.ID)).Code)
	assert.Equal(t, http.StatusUnauthorized, do("/required", token(9999)).Code)

	w := do("/required", token(active.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":`+itoa(active.ID)+`}`, w.Body.String())

	assert.JSONEq(t, `{"id":0}`, do("/optional", "Bearer garbage").Body.String())
	assert.JSONEq(t, `{"id":0}`, do("/optional", "").Body.String())
	assert.JSONEq(t, `{"id":`+itoa(active.ID)+`}`, do("/optional", token(active.ID)).Body.String())

	assert.Equal(t, http.StatusForbidden, do("/mod", token(active.ID)).Code)
	assert.Equal(t, http.StatusOK, do("/mod", token(mod.ID)).Code)
	assert.Equal(t, http.StatusForbidden, do("/admin", token(mod.ID)).Code)
}

func TestAuthMissingSecret(t *testing.T) {
	gdb := testutil.NewDB(t)
	a := NewAuthenticator(gdb, auth.NewTokenManager("", time.Hour))

	r := newEngine(false)
	r.GET("/required", a.AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/optional", a.OptionalAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/required", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorHandler(t *testing.T) {
	type payload struct {
		Email string `json:"email" binding:"required,email"`
	}
	bind := func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	}

	cases := []struct {
		name       string
		production bool
		handler    gin.HandlerFunc
		body       string
		status     int
		details    bool
	}{
		{"malformed json", false, bind, `{"email":`, http.StatusBadRequest, true},
		{"validation", false, bind, `{"email":"nope"}`, http.StatusBadRequest, true},
		{"typed not found", false, func(c *gin.Context) { _ = c.Error(apperr.NotFound("Prompt não encontrado")) }, "", http.StatusNotFound, false},
		{"internal in dev", false, func(c *gin.Context) { _ = c.Error(apperr.Internal("falhou", assert.AnError)) }, "", http.StatusInternalServerError, true},
		{"internal in prod", true, func(c *gin.Context) { _ = c.Error(apperr.Internal("falhou", assert.AnError)) }, "", http.StatusInternalServerError, false},
		{"untyped", false, func(c *gin.Context) { _ = c.Error(assert.AnError) }, "", http.StatusInternalServerError, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(tc.production)
			r.POST("/x", tc.handler)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
			assert.Equal(t, tc.details, strings.Contains(w.Body.String(), `"details"`))
		})
	}
}

func TestBodyLimit(t *testing.T) {
	r := newEngine(false, BodyLimit(16, 1024))
	r.POST("/x", func(c *gin.Context) {
		var v map[string]string
		if err := c.ShouldBindJSON(&v); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"b"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop(), true))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Erro interno do servidor"}`, w.Body.String())
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
