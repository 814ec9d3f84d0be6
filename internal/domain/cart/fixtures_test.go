package cart

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/session"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/metrics"
	"github.com/your-org/storefront/internal/pkg/testutil"
	"gorm.io/gorm"
)

type harness struct {
	db       *gorm.DB
	store    *SessionStore
	sessions *SessionCart
	carts    *Service
	merger   *Merger
	metrics  *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t, &user.User{}, &user.Address{}, &product.Category{}, &product.Product{}, &Cart{}, &CartItem{})
	_, rdb := testutil.NewRedis(t)
	cfg := testutil.Config()
	log := logger.Discard()
	m := metrics.New(prometheus.NewRegistry())

	store := NewSessionStore(session.NewStore(rdb, cfg.Session))
	sessions := NewSessionCart(store, product.NewService(db, cfg), m, log)
	return &harness{
		db:       db,
		store:    store,
		sessions: sessions,
		carts:    NewService(db, m, log),
		merger:   NewMerger(db, sessions, m, log),
		metrics:  m,
	}
}

func (h *harness) user(t *testing.T, username string) user.User {
	t.Helper()
	u := user.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, h.db.Create(&u).Error)
	return u
}

func (h *harness) product(t *testing.T, id uint, price string) product.Product {
	t.Helper()

	var cat product.Category
	err := h.db.Where(product.Category{Name: "Floor Tiles", Slug: "floor-tiles"}).FirstOrCreate(&cat).Error
	require.NoError(t, err)

	p := product.Product{ID: id, Name: "Tile", Price: decimal.RequireFromString(price), CategoryID: cat.ID}
	require.NoError(t, h.db.Omit("Category").Create(&p).Error)
	return p
}

func (h *harness) cartCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&Cart{}).Count(&n).Error)
	return n
}

// mapCatalog is an in-memory ProductCatalog.
type mapCatalog map[uint]product.Product

func (c mapCatalog) FindByIDs(_ context.Context, ids []uint) (map[uint]product.Product, error) {
	out := make(map[uint]product.Product)
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
