// Package testutil provides in-memory backends for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with foreign keys on and
// migrates models into it. The pool is pinned to one connection so the
// database lives as long as the test.
func NewDB(t testing.TB, models ...interface{}) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return db
}

// NewRedis starts a miniredis server and returns it with a connected client.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// Config returns a configuration suitable for tests.
func Config() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test", Version: "test", Environment: "test"},
		Server: config.ServerConfig{
			Port:           "0",
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		JWT: config.JWTConfig{
			Secret:             "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
			RememberMeExpiry:   14 * 24 * time.Hour,
		},
		Security: config.SecurityConfig{
			BcryptCost:         4,
			RateLimitPerMinute: 1000,
		},
		Session: config.SessionConfig{
			CookieName: "session_id",
			TTL:        24 * time.Hour,
			KeyPrefix:  "session",
		},
		Catalog: config.CatalogConfig{PageSize: 9, HomeProducts: 12, RelatedLimit: 3},
		Storage: config.StorageConfig{
			PublicBaseURL:     "/media",
			MaxSize:           1 << 20,
			AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "webp"},
		},
		Receipt: config.ReceiptConfig{CompanyName: "Tile Store", SupportEmail: "support@example.com"},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}
