package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/testutil"
)

func TestMigrateAndSeed(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMigration(db, logger.Discard())
	ctx := context.Background()
	passwords := auth.NewPasswordManager(testutil.Config())

	require.NoError(t, m.RunAutoMigrations(ctx))
	require.NoError(t, m.CreateIndexes(ctx))
	require.NoError(t, m.SeedInitialData(ctx, passwords))

	counts, err := m.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(DefaultCategories)), counts["categories"])
	assert.Equal(t, int64(len(DefaultProducts)), counts["products"])
	assert.Equal(t, int64(len(DefaultUsers)), counts["users"])
	assert.Zero(t, counts["carts"])

	var tile product.Product
	require.NoError(t, db.Preload("Category").Where("name = ?", "Premium Ceramic Floor Tile").First(&tile).Error)
	assert.Equal(t, "49.99", tile.Price.StringFixed(2))
	assert.Equal(t, "floor-tiles", tile.Category.Slug)

	var admin user.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, passwords.VerifyPassword("admin123", admin.Password))

	var kazi user.User
	require.NoError(t, db.Where("username = ?", "kazi").First(&kazi).Error)
	assert.Equal(t, "+90", kazi.CountryCode)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t, Models()...)
	m := NewMigration(db, logger.Discard())
	ctx := context.Background()
	passwords := auth.NewPasswordManager(testutil.Config())

	require.NoError(t, m.SeedInitialData(ctx, passwords))

	n, err := m.SeedCategories(ctx, DefaultCategories)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = m.SeedProducts(ctx, DefaultProducts)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = m.SeedUsers(ctx, DefaultUsers, passwords)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeedProductsNeedsCategory(t *testing.T) {
	db := testutil.NewDB(t, Models()...)
	m := NewMigration(db, logger.Discard())

	_, err := m.SeedProducts(context.Background(), []SeedProduct{{Name: "Orphan", Price: "1.00", Category: "Nope"}})
	assert.Error(t, err)
}
