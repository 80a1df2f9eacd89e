package middleware

import (
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"pcprompts/internal/apperr"
	"pcprompts/internal/config"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
)

const rateLimitClients = 10000

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window counter per client IP. The least recently seen
// clients are evicted once the table is full.
type RateLimiter struct {
	cfg config.RateLimitConfig
	now func() time.Time

	mu       sync.Mutex
	counters *lru.Cache[string, *rateWindow]
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	counters, _ := lru.New[string, *rateWindow](rateLimitClients) // size is a positive constant
	return &RateLimiter{cfg: cfg, now: time.Now, counters: counters}
}

// Allow counts a hit for key; when over the limit it returns the time left in the window.
func (l *RateLimiter) Allow(key string) (bool, int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.counters.Get(key)
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		w = &rateWindow{start: now}
		l.counters.Add(key, w)
	}
	w.count++

	remaining := l.cfg.Max - w.count
	if remaining < 0 {
		return false, 0, w.start.Add(l.cfg.Window).Sub(now)
	}
	return true, remaining, 0
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.cfg.Enabled || slices.Contains(l.cfg.Exempt, c.Request.URL.Path) {
			c.Next()
			return
		}

		ok, remaining, retryAfter := l.Allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			abort(c, apperr.RateLimited("Muitas requisições. Tente novamente mais tarde.").
				WithDetails(gin.H{"retryAfter": secs}))
			return
		}
		c.Next()
	}
}
