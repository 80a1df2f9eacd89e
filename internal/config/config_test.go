package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "pc.sc.gov.br", cfg.InstitutionalDomain)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Empty(t, cfg.JWTSecret)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.RateLimit.Exempt)
	assert.Equal(t, int64(5<<20), cfg.MaxAvatarSize)
	assert.Equal(t, int64(2<<20), cfg.MaxIconSize)
}

func TestFromEnv_Production(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"APP_ENV":              "production",
		"JWT_EXPIRES_IN":       "12h",
		"INSTITUTIONAL_DOMAIN": "@PC.SC.GOV.BR",
		"CORS_ORIGINS":         "https://a.example, https://b.example",
		"RATE_LIMIT_MAX":       "50",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 50, cfg.RateLimit.Max)
	assert.ElementsMatch(t, []string{"/api/auth/me", "/api/stats/dashboard"}, cfg.RateLimit.Exempt)
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, "pc.sc.gov.br", cfg.InstitutionalDomain)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"JWT_EXPIRES_IN": "soon"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{"DB_DRIVER": "oracle"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{"RATE_LIMIT_MAX": "0"}))
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("7d")
	require.NoError(t, err)
	assert.Equal(t, 168*time.Hour, d)

	d, err = ParseDuration("15m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	_, err = ParseDuration("0d")
	assert.Error(t, err)
	_, err = ParseDuration("-1h")
	assert.Error(t, err)
}
