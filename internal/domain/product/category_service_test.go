package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/testutil"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "floor-tiles", Slugify("Floor Tiles"))
	assert.Equal(t, "outdoor-patio-tiles", Slugify("  Outdoor / Patio   Tiles! "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestCategoryLifecycle(t *testing.T) {
	db := testutil.NewDB(t, &Category{}, &Product{})
	svc := NewCategoryService(db, testutil.Config())
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, &CategoryRequest{Name: "Floor Tiles"})
	require.NoError(t, err)
	assert.Equal(t, "floor-tiles", cat.Slug)

	_, err = svc.CreateCategory(ctx, &CategoryRequest{Name: "Floor Tiles"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	found, err := svc.GetCategoryBySlug(ctx, "floor-tiles")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, found.ID)

	p := Product{Name: "Tile", Price: decimal.NewFromInt(5), CategoryID: cat.ID}
	require.NoError(t, db.Omit("Category").Create(&p).Error)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))

	var remaining int64
	require.NoError(t, db.Model(&Product{}).Count(&remaining).Error)
	assert.Zero(t, remaining, "products cascade with their category")

	assert.True(t, pkgerrors.IsNotFound(svc.DeleteCategory(ctx, cat.ID)))
}
