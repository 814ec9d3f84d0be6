package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "session_id", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 14*24*time.Hour, cfg.JWT.RememberMeExpiry)
	assert.Equal(t, 9, cfg.Catalog.PageSize)
	assert.Equal(t, 3, cfg.Catalog.RelatedLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CATALOG_PAGE_SIZE", "12")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 12, cfg.Catalog.PageSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestDSNAndRedisAddr(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "shop", SSLMode: "disable"},
		Redis:    RedisConfig{Host: "cache", Port: "6379"},
	}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", cfg.GetDatabaseDSN())
	assert.Equal(t, "cache:6379", cfg.GetRedisAddr())
}
