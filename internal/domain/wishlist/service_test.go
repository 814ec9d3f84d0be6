package wishlist

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/testutil"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *cart.Service, *gorm.DB, user.User, product.Product) {
	t.Helper()

	db := testutil.NewDB(t,
		&user.User{}, &user.Address{},
		&product.Category{}, &product.Product{},
		&cart.Cart{}, &cart.CartItem{},
		&Wishlist{}, &WishlistItem{},
	)

	u := user.User{Username: "ana", Email: "ana@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	cat := product.Category{Name: "Wall Tiles", Slug: "wall-tiles"}
	require.NoError(t, db.Create(&cat).Error)
	p := product.Product{Name: "Subway", Price: decimal.RequireFromString("24.99"), CategoryID: cat.ID}
	require.NoError(t, db.Omit("Category").Create(&p).Error)

	carts := cart.NewService(db, nil, logger.Discard())
	return NewService(db, carts, logger.Discard()), carts, db, u, p
}

func TestAddIsIdempotent(t *testing.T) {
	svc, _, _, u, p := setup(t)
	ctx := context.Background()

	first, err := svc.AddToWishlist(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.Equal(t, int64(1), first.TotalItems)

	again, err := svc.AddToWishlist(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, again.IsNew)
	assert.Equal(t, int64(1), again.TotalItems)
	assert.Equal(t, first.Item.ID, again.Item.ID)
}

func TestAddUnknownProduct(t *testing.T) {
	svc, _, _, u, _ := setup(t)

	_, err := svc.AddToWishlist(context.Background(), u.ID, 999)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRemoveAndCheck(t *testing.T) {
	svc, _, _, u, p := setup(t)
	ctx := context.Background()

	in, err := svc.IsInWishlist(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, in)

	_, err = svc.RemoveFromWishlist(ctx, u.ID, p.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = svc.AddToWishlist(ctx, u.ID, p.ID)
	require.NoError(t, err)

	in, err = svc.IsInWishlist(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, in)

	remaining, err := svc.RemoveFromWishlist(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestGetWishlistWithoutRowIsEmpty(t *testing.T) {
	svc, _, db, u, _ := setup(t)

	w, err := svc.GetWishlist(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Zero(t, w.TotalItems())

	var n int64
	require.NoError(t, db.Model(&Wishlist{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestMoveToCart(t *testing.T) {
	svc, carts, _, u, p := setup(t)
	ctx := context.Background()

	_, err := svc.MoveToCart(ctx, u.ID, p.ID, 1)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = svc.AddToWishlist(ctx, u.ID, p.ID)
	require.NoError(t, err)

	item, err := svc.MoveToCart(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	in, err := svc.IsInWishlist(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, in)

	view, err := carts.View(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalItems)
}
