package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/infrastructure/session"
	"gorm.io/gorm"
)

func TestMergeEmptySessionCreatesNoCart(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "ana")

	res, err := h.merger.Merge(context.Background(), u.ID, session.NewID())
	require.NoError(t, err)
	assert.Zero(t, res.Lines)
	assert.Zero(t, h.cartCount(t))
}

func TestMergeOnlyUnresolvableEntriesCreatesNoCart(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "ana")
	ctx := context.Background()
	sid := session.NewID()

	_, err := h.store.Add(ctx, sid, 77, 2)
	require.NoError(t, err)

	_, err = h.merger.Merge(ctx, u.ID, sid)
	require.NoError(t, err)
	assert.Zero(t, h.cartCount(t))

	items, err := h.store.Get(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMergeIsAdditive(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "ana")
	a := h.product(t, 1, "10.00")
	ctx := context.Background()
	sid := session.NewID()

	_, err := h.carts.AddItem(ctx, u.ID, a.ID, 3)
	require.NoError(t, err)
	_, err = h.store.Add(ctx, sid, a.ID, 2)
	require.NoError(t, err)

	res, err := h.merger.Merge(ctx, u.ID, sid)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Lines)
	assert.Equal(t, 2, res.Units)

	view, err := h.carts.View(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Quantity)

	items, err := h.store.Get(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMergeCreatesCartForNewUser(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "ana")
	h.product(t, 10, "49.99")
	h.product(t, 11, "24.99")
	ctx := context.Background()
	sid := session.NewID()

	_, err := h.sessions.Add(ctx, sid, 10, 1)
	require.NoError(t, err)
	_, err = h.sessions.Add(ctx, sid, 11, 2)
	require.NoError(t, err)

	res, err := h.merger.Merge(ctx, u.ID, sid)
	require.NoError(t, err)
	assert.NotZero(t, res.CartID)

	cart, err := h.carts.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, cart)

	got := map[uint]int{}
	for _, item := range cart.Items {
		got[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[uint]int{10: 1, 11: 2}, got)
	assert.Equal(t, "99.97", cart.TotalPrice().StringFixed(2))

	items, err := h.store.Get(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMergeSkipsDeletedProducts(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "ana")
	keep := h.product(t, 1, "5.00")
	gone := h.product(t, 2, "5.00")
	ctx := context.Background()
	sid := session.NewID()

	_, err := h.sessions.Add(ctx, sid, keep.ID, 1)
	require.NoError(t, err)
	_, err = h.sessions.Add(ctx, sid, gone.ID, 4)
	require.NoError(t, err)
	require.NoError(t, h.db.Delete(&product.Product{}, gone.ID).Error)

	res, err := h.merger.Merge(ctx, u.ID, sid)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Lines)

	view, err := h.carts.View(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, keep.ID, view.Lines[0].ProductID)
}

func TestMergeFailureKeepsSessionCart(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "ana")
	p := h.product(t, 1, "5.00")
	ctx := context.Background()
	sid := session.NewID()

	_, err := h.sessions.Add(ctx, sid, p.ID, 2)
	require.NoError(t, err)

	err = h.db.Callback().Create().Before("gorm:create").Register("test:fail_cart_items", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "cart_items" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = h.merger.Merge(ctx, u.ID, sid)
	require.Error(t, err)

	assert.Zero(t, h.cartCount(t), "cart creation rolled back with the failed line")

	items, err := h.store.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1": 2}, items)
}
