package handlers

import (
	"context"
	"net/http"
	"time"

	"pcprompts/internal/apperr"
	"pcprompts/internal/models"
	"pcprompts/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	dashboardCacheKey = "stats:dashboard"
	dashboardTTL      = time.Minute
)

type specialtyRank struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	PromptsCount int64  `json:"promptsCount"`
}

type DashboardStats struct {
	Users          int64           `json:"users"`
	Prompts        int64           `json:"prompts"`
	Discussions    int64           `json:"discussions"`
	Comments       int64           `json:"comments"`
	Likes          int64           `json:"likes"`
	PendingReview  int64           `json:"pendingReview"`
	TopSpecialties []specialtyRank `json:"topSpecialties"`
	RecentPrompts  []models.Prompt `json:"recentPrompts"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

type StatsHandler struct {
	db    *gorm.DB
	cache *utils.TTLCache[*DashboardStats]
}

func NewStatsHandler(db *gorm.DB, cache *utils.TTLCache[*DashboardStats]) *StatsHandler {
	return &StatsHandler{db: db, cache: cache}
}

func (h *StatsHandler) collect(ctx context.Context) (*DashboardStats, error) {
	s := &DashboardStats{GeneratedAt: time.Now()}
	g, gctx := errgroup.WithContext(ctx)
	q := func() *gorm.DB { return h.db.WithContext(gctx) }

	g.Go(func() error {
		return q().Model(&models.User{}).Where("is_active = ?", true).Count(&s.Users).Error
	})
	g.Go(func() error {
		return q().Model(&models.Prompt{}).Where("is_public = ? AND is_approved = ?", true, true).Count(&s.Prompts).Error
	})
	g.Go(func() error {
		return q().Model(&models.Discussion{}).Count(&s.Discussions).Error
	})
	g.Go(func() error {
		return q().Model(&models.Comment{}).Where("is_approved = ?", true).Count(&s.Comments).Error
	})
	g.Go(func() error {
		return q().Model(&models.PromptLike{}).Count(&s.Likes).Error
	})
	g.Go(func() error {
		var prompts, comments int64
		if err := q().Model(&models.Prompt{}).Where("is_approved = ?", false).Count(&prompts).Error; err != nil {
			return err
		}
		if err := q().Model(&models.Comment{}).Where("is_approved = ?", false).Count(&comments).Error; err != nil {
			return err
		}
		s.PendingReview = prompts + comments
		return nil
	})
	g.Go(func() error {
		return q().Model(&models.Specialty{}).
			Select("specialties.id, specialties.name, specialties.color, COUNT(prompts.id) AS prompts_count").
			Joins("LEFT JOIN prompts ON prompts.specialty_id = specialties.id AND prompts.is_public = ? AND prompts.is_approved = ?", true, true).
			Group("specialties.id, specialties.name, specialties.color").
			Order("prompts_count DESC, specialties.id ASC").
			Limit(5).
			Scan(&s.TopSpecialties).Error
	})
	g.Go(func() error {
		return q().Preload("Author").Preload("Specialty").
			Where("is_public = ? AND is_approved = ?", true, true).
			Order("created_at DESC, id DESC").
			Limit(5).
			Find(&s.RecentPrompts).Error
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dashboard GET /api/stats/dashboard - cached for a minute.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	if s, ok := h.cache.Get(dashboardCacheKey); ok {
		c.JSON(http.StatusOK, s)
		return
	}

	s, err := h.collect(c.Request.Context())
	if err != nil {
		fail(c, apperr.Internal("Erro ao carregar estatísticas", err))
		return
	}
	h.cache.Set(dashboardCacheKey, s, dashboardTTL)
	c.JSON(http.StatusOK, s)
}

type HealthHandler struct {
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(started time.Time) *HealthHandler {
	return &HealthHandler{started: started, now: time.Now}
}

// Health GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    now.Sub(h.started).Seconds(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}
