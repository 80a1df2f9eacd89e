// Package config loads runtime settings from the environment (and an optional .env file).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// RateLimitConfig is passed explicitly to the limiter; nothing reads the environment on the hot path.
type RateLimitConfig struct {
	Enabled bool
	Window  time.Duration
	Max     int
	Exempt  []string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Port != "" && s.Username != "" && s.Password != "" && s.From != ""
}

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBDriver    string // postgres | sqlite
	DatabaseURL string

	JWTSecret    string
	JWTExpiresIn time.Duration

	InstitutionalDomain string
	CORSOrigins         []string
	RateLimit           RateLimitConfig

	UploadDir     string
	MaxAvatarSize int64
	MaxIconSize   int64
	MaxBodySize   int64

	SiteURL            string
	FrontendURL        string
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string

	StaffDirectoryFile string
	SMTP               SMTPConfig
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their own values.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Env:                 strings.ToLower(get("APP_ENV", EnvDevelopment)),
		Port:                get("PORT", "3001"),
		LogLevel:            get("LOG_LEVEL", "info"),
		DBDriver:            strings.ToLower(get("DB_DRIVER", "postgres")),
		DatabaseURL:         get("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=pcprompts port=5432 sslmode=disable TimeZone=America/Sao_Paulo"),
		JWTSecret:           getenv("JWT_SECRET"),
		InstitutionalDomain: strings.ToLower(strings.TrimPrefix(get("INSTITUTIONAL_DOMAIN", "pc.sc.gov.br"), "@")),
		CORSOrigins:         splitList(get("CORS_ORIGINS", "http://localhost:5173")),
		UploadDir:           get("UPLOAD_DIR", "./uploads"),
		MaxAvatarSize:       5 << 20,
		MaxIconSize:         2 << 20,
		MaxBodySize:         1 << 20,
		SiteURL:             strings.TrimRight(get("SITE_URL", "http://localhost:3001"), "/"),
		FrontendURL:         strings.TrimRight(get("FRONTEND_URL", "http://localhost:5173"), "/"),
		SessionSecret:       get("SESSION_SECRET", "change_me_session_secret"),
		GoogleClientID:      getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:  getenv("GOOGLE_CLIENT_SECRET"),
		StaffDirectoryFile:  getenv("STAFF_DIRECTORY_FILE"),
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT"),
			Username: getenv("SMTP_USER"),
			Password: getenv("SMTP_PASS"),
			From:     getenv("SMTP_FROM"),
		},
	}

	var err error
	if cfg.JWTExpiresIn, err = ParseDuration(get("JWT_EXPIRES_IN", "7d")); err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled: cfg.IsProduction(),
		Window:  15 * time.Minute,
		Max:     300,
	}
	if cfg.IsProduction() {
		cfg.RateLimit.Exempt = []string{"/api/auth/me", "/api/stats/dashboard"}
	}
	if v := getenv("RATE_LIMIT_ENABLED"); v != "" {
		if cfg.RateLimit.Enabled, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_ENABLED: %w", err)
		}
	}
	if v := getenv("RATE_LIMIT_WINDOW"); v != "" {
		if cfg.RateLimit.Window, err = ParseDuration(v); err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
		}
	}
	if v := getenv("RATE_LIMIT_MAX"); v != "" {
		if cfg.RateLimit.Max, err = strconv.Atoi(v); err != nil || cfg.RateLimit.Max <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_MAX: invalid value %q", v)
		}
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}

	return cfg, nil
}

// ParseDuration accepts Go durations ("90m", "12h") and whole days ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
