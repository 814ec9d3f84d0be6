// internal/domain/cart/session_cart.go
package cart

import (
	"context"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/product"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/metrics"
)

// ProductCatalog resolves product ids. Ids that no longer exist are absent
// from the returned map.
type ProductCatalog interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]product.Product, error)
}

// SessionLine is a session cart entry resolved against the catalog.
type SessionLine struct {
	ProductID uint
	Product   product.Product
	Quantity  int
}

// SessionCart is the anonymous cart of one browser session.
type SessionCart struct {
	store   *SessionStore
	catalog ProductCatalog
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewSessionCart creates a session cart service
func NewSessionCart(store *SessionStore, catalog ProductCatalog, m *metrics.Metrics, logger *logrus.Logger) *SessionCart {
	return &SessionCart{store: store, catalog: catalog, metrics: m, logger: logger}
}

// Add puts quantity units of an existing product in the session cart and
// returns the line's new quantity.
func (c *SessionCart) Add(ctx context.Context, sessionID string, productID uint, quantity int) (int, error) {
	if quantity < 1 {
		return 0, pkgerrors.Validation("Quantity must be at least 1")
	}
	found, err := c.catalog.FindByIDs(ctx, []uint{productID})
	if err != nil {
		return 0, err
	}
	if _, ok := found[productID]; !ok {
		return 0, pkgerrors.NotFound("Product not found")
	}

	qty, err := c.store.Add(ctx, sessionID, productID, quantity)
	if err != nil {
		return 0, err
	}
	c.metrics.CartMutation(metrics.StoreSession, "add")
	return qty, nil
}

// Remove drops a product from the session cart.
func (c *SessionCart) Remove(ctx context.Context, sessionID string, productID uint) error {
	if err := c.store.Remove(ctx, sessionID, productID); err != nil {
		return err
	}
	c.metrics.CartMutation(metrics.StoreSession, "remove")
	return nil
}

// SetQuantity sets a product's quantity; zero or less removes it.
func (c *SessionCart) SetQuantity(ctx context.Context, sessionID string, productID uint, quantity int) error {
	if err := c.store.SetQuantity(ctx, sessionID, productID, quantity); err != nil {
		return err
	}
	c.metrics.CartMutation(metrics.StoreSession, "update")
	return nil
}

// Clear empties the session cart.
func (c *SessionCart) Clear(ctx context.Context, sessionID string) error {
	if err := c.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	c.metrics.CartMutation(metrics.StoreSession, "clear")
	return nil
}

// Materialize resolves the session cart against the catalog, ordered by
// product id. Entries whose product is gone are skipped.
func (c *SessionCart) Materialize(ctx context.Context, sessionID string) ([]SessionLine, error) {
	items, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(items))
	quantities := make(map[uint]int, len(items))
	for key, qty := range items {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
		quantities[uint(id)] = qty
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	found, err := c.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]SessionLine, 0, len(ids))
	for _, id := range ids {
		p, ok := found[id]
		if !ok {
			c.logger.WithFields(logrus.Fields{"product_id": id}).Debug("skipping session cart entry for missing product")
			continue
		}
		lines = append(lines, SessionLine{ProductID: id, Product: p, Quantity: quantities[id]})
	}
	return lines, nil
}

// TotalPrice sums price times quantity over resolvable entries.
func (c *SessionCart) TotalPrice(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	lines, err := c.Materialize(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return sumLines(lines), nil
}

// TotalItems sums the stored quantities, resolvable or not.
func (c *SessionCart) TotalItems(ctx context.Context, sessionID string) (int, error) {
	items, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, qty := range items {
		n += qty
	}
	return n, nil
}

// View renders the session cart.
func (c *SessionCart) View(ctx context.Context, sessionID string) (*View, error) {
	lines, err := c.Materialize(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	totalItems, err := c.TotalItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	v := &View{Lines: make([]Line, 0, len(lines)), TotalPrice: sumLines(lines), TotalItems: totalItems}
	for _, l := range lines {
		v.Lines = append(v.Lines, Line{
			ProductID:  l.ProductID,
			Product:    l.Product,
			Quantity:   l.Quantity,
			TotalPrice: l.Product.LineTotal(l.Quantity),
		})
	}
	return v, nil
}

func sumLines(lines []SessionLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Product.LineTotal(l.Quantity))
	}
	return total
}
