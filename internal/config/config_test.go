package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ENV", "NODE_ENV", "ALLOWED_ORIGINS", "FRONTEND_URL", "ADMIN_URL", "MAX_UPLOAD_MB", "JWT_TTL_HOURS", "BLOCKED_WORDS", "REDIS_URI", "POSTGRES_URI", "TRUST_PROXY"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.AllowedHost)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Nil(t, cfg.BlockedWords)
	assert.Empty(t, cfg.RedisURI)
	assert.Empty(t, cfg.PostgresURI)
	assert.False(t, cfg.TrustProxy)
}

func TestLoadNodeEnvAlias(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("HOST", "https://api.kavyalok.in:443/v1")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "api.kavyalok.in", cfg.AllowedHost)
}

func TestLoadLists(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://kavyalok.in, ,https://admin.kavyalok.in ")
	t.Setenv("BLOCKED_WORDS", "casino,free money")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()
	assert.Equal(t, []string{"https://kavyalok.in", "https://admin.kavyalok.in"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"casino", "free money"}, cfg.BlockedWords)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.True(t, cfg.TrustProxy)
}

func TestCloudinaryConfigured(t *testing.T) {
	cfg := &Config{CloudinaryName: "demo", CloudinaryAPIKey: "key"}
	assert.False(t, cfg.CloudinaryConfigured())
	cfg.CloudinaryAPISecret = "secret"
	assert.True(t, cfg.CloudinaryConfigured())
}
