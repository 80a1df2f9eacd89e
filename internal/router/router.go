package router

import (
	"slices"
	"time"

	"pcprompts/internal/apperr"
	"pcprompts/internal/auth"
	"pcprompts/internal/config"
	"pcprompts/internal/directory"
	"pcprompts/internal/handlers"
	"pcprompts/internal/middleware"
	"pcprompts/internal/services"
	"pcprompts/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Tokens    *auth.TokenManager
	Directory directory.Directory
	Mail      *services.MailService
	Uploads   *services.UploadService
	Verifier  auth.IdentityVerifier
	StartedAt time.Time
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// New builds the API engine.
func New(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}

	statsCache, err := utils.NewTTLCache[*handlers.DashboardStats](16)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Recovery(d.Logger, cfg.IsProduction()))
	r.Use(middleware.ErrorHandler(d.Logger, cfg.IsProduction()))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.BodyLimit(cfg.MaxBodySize, cfg.MaxAvatarSize+(1<<20)))

	r.Static(services.PublicUploadPrefix, d.Uploads.Dir())
	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperr.NotFound("Rota não encontrada"))
	})

	RegisterRoutes(r, d, statsCache)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, d Deps, statsCache *utils.TTLCache[*handlers.DashboardStats]) {
	cfg := d.Config
	likes := services.NewLikeService(d.DB)

	// Handlers
	authHandler := handlers.NewAuthHandler(d.DB, d.Tokens, cfg, d.Directory, d.Mail, d.Verifier)
	promptHandler := handlers.NewPromptHandler(d.DB, likes)
	commentHandler := handlers.NewCommentHandler(d.DB, likes)
	discussionHandler := handlers.NewDiscussionHandler(d.DB)
	postHandler := handlers.NewPostHandler(d.DB)
	specialtyHandler := handlers.NewSpecialtyHandler(d.DB, d.Uploads, cfg.MaxIconSize)
	userHandler := handlers.NewUserHandler(d.DB, d.Uploads, cfg.MaxAvatarSize)
	statsHandler := handlers.NewStatsHandler(d.DB, statsCache)
	healthHandler := handlers.NewHealthHandler(d.StartedAt)

	authn := middleware.NewAuthenticator(d.DB, d.Tokens)
	optional := authn.OptionalAuth()
	required := authn.AuthRequired()
	moderator := middleware.ModeratorRequired()
	admin := middleware.AdminRequired()

	api := r.Group("/api", middleware.NewRateLimiter(cfg.RateLimit).Middleware())
	api.GET("/health", healthHandler.Health)
	api.GET("/stats/dashboard", statsHandler.Dashboard)

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", required, authHandler.Me)
		authGroup.POST("/google", authHandler.Google)

		// the cookie session only carries the OAuth state between redirect and callback
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(sessions.Options{
			Path:     "/api/auth/google",
			MaxAge:   600,
			HttpOnly: true,
			Secure:   cfg.IsProduction(),
		})
		oauth := authGroup.Group("/google", sessions.Sessions("pcprompts_oauth", store))
		oauth.GET("/login", authHandler.GoogleLogin)
		oauth.GET("/callback", authHandler.GoogleCallback)
	}

	// Prompts
	prompts := api.Group("/prompts")
	{
		prompts.GET("", optional, promptHandler.List)
		prompts.GET("/:id", optional, promptHandler.Get)
		prompts.POST("", required, promptHandler.Create)
		prompts.PUT("/:id", required, promptHandler.Update)
		prompts.DELETE("/:id", required, promptHandler.Delete)
		prompts.PATCH("/:id/approve", required, moderator, promptHandler.Approve)
		prompts.POST("/:id/like", required, promptHandler.Like)
		prompts.GET("/:id/comments", optional, commentHandler.ListForPrompt)
		prompts.POST("/:id/comments", required, commentHandler.CreateForPrompt)
	}

	// Comments
	comments := api.Group("/comments")
	{
		comments.GET("/pending", required, moderator, commentHandler.Pending)
		comments.PUT("/:id", required, commentHandler.Update)
		comments.DELETE("/:id", required, commentHandler.Delete)
		comments.PATCH("/:id/approve", required, moderator, commentHandler.Approve)
		comments.POST("/:id/like", required, commentHandler.Like)
	}

	// Discussions
	discussions := api.Group("/discussions")
	{
		discussions.GET("", optional, discussionHandler.List)
		discussions.GET("/:id", optional, discussionHandler.Get)
		discussions.POST("", required, discussionHandler.Create)
		discussions.PUT("/:id", required, discussionHandler.Update)
		discussions.DELETE("/:id", required, discussionHandler.Delete)
		discussions.PATCH("/:id/pin", required, moderator, discussionHandler.Pin)
		discussions.PATCH("/:id/lock", required, moderator, discussionHandler.Lock)
		discussions.GET("/:id/posts", optional, postHandler.List)
		discussions.POST("/:id/posts", required, postHandler.Create)
	}

	// Posts
	posts := api.Group("/posts")
	{
		posts.PUT("/:id", required, postHandler.Update)
		posts.DELETE("/:id", required, postHandler.Delete)
		posts.GET("/:id/comments", optional, commentHandler.ListForPost)
		posts.POST("/:id/comments", required, commentHandler.CreateForPost)
	}

	// Specialties
	specialties := api.Group("/specialties")
	{
		specialties.GET("", specialtyHandler.List)
		specialties.GET("/:id", specialtyHandler.Get)
		specialties.POST("", required, admin, specialtyHandler.Create)
		specialties.PUT("/:id", required, admin, specialtyHandler.Update)
		specialties.DELETE("/:id", required, admin, specialtyHandler.Delete)
		specialties.POST("/:id/icon", required, admin, specialtyHandler.UploadIcon)
	}

	// Users
	users := api.Group("/users", required)
	{
		users.GET("", admin, userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.PUT("/me", userHandler.UpdateMe)
		users.PUT("/me/password", userHandler.ChangePassword)
		users.POST("/me/avatar", userHandler.UploadAvatar)
		users.PATCH("/:id/roles", admin, userHandler.SetRoles)
		users.PATCH("/:id/status", admin, userHandler.SetStatus)
	}
}
