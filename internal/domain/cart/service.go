// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/product"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles the persistent cart of authenticated users
type Service struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, m *metrics.Metrics, logger *logrus.Logger) *Service {
	return &Service{
		db:      db,
		metrics: m,
		logger:  logger,
	}
}

// GetOrCreate returns the user's cart, creating it on first use.
func (s *Service) GetOrCreate(ctx context.Context, userID uint) (*Cart, error) {
	return getOrCreate(s.db.WithContext(ctx), userID)
}

// GetCart returns the user's cart with items and products loaded, newest
// line first. It returns nil, nil when the user has no cart yet.
func (s *Service) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	var cart Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at DESC, id DESC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return &cart, nil
}

// View renders the user's cart. A user without a cart gets an empty view.
func (s *Service) View(ctx context.Context, userID uint) (*View, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return viewOf(cart), nil
}

// AddItem adds quantity units of a product to the user's cart.
func (s *Service) AddItem(ctx context.Context, userID, productID uint, quantity int) (*CartItem, error) {
	if quantity < 1 {
		return nil, pkgerrors.Validation("Quantity must be at least 1")
	}

	var item *CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p product.Product
		if err := tx.Select("id").First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("Product not found")
			}
			return err
		}

		cart, err := getOrCreate(tx, userID)
		if err != nil {
			return err
		}
		item, err = addItem(tx, cart.ID, productID, quantity)
		return err
	})
	if err != nil {
		return nil, wrapInternal(err, "failed to add item to cart")
	}

	s.metrics.CartMutation(metrics.StorePersistent, "add")
	return item, nil
}

// RemoveItem deletes a line by cart item id. Lines in another user's cart
// are reported as not found.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, s.cartIDs(userID)).
		Delete(&CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.NotFound("Cart item not found")
	}

	s.metrics.CartMutation(metrics.StorePersistent, "remove")
	return nil
}

// UpdateItem sets a line's quantity by cart item id; zero or less deletes
// it and returns nil.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, s.RemoveItem(ctx, userID, itemID)
	}

	var item CartItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, s.cartIDs(userID)).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Cart item not found")
		}
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}

	return s.setQuantity(ctx, &item, quantity)
}

// RemoveProduct deletes the user's line for a product. A missing line is
// a no-op, matching the session cart.
func (s *Service) RemoveProduct(ctx context.Context, userID, productID uint) error {
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND cart_id IN (?)", productID, s.cartIDs(userID)).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	s.metrics.CartMutation(metrics.StorePersistent, "remove")
	return nil
}

// UpdateProduct sets the quantity of the user's line for a product; zero
// or less deletes it. The line must exist.
func (s *Service) UpdateProduct(ctx context.Context, userID, productID uint, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, s.RemoveProduct(ctx, userID, productID)
	}

	var item CartItem
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND cart_id IN (?)", productID, s.cartIDs(userID)).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Product is not in your cart")
		}
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}

	return s.setQuantity(ctx, &item, quantity)
}

func (s *Service) setQuantity(ctx context.Context, item *CartItem, quantity int) (*CartItem, error) {
	err := s.db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_at": time.Now().UTC(),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("Product").First(item, item.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload cart item: %w", err)
	}

	s.metrics.CartMutation(metrics.StorePersistent, "update")
	return item, nil
}

// Clear removes every line but keeps the cart itself.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).
		Where("cart_id IN (?)", s.cartIDs(userID)).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.metrics.CartMutation(metrics.StorePersistent, "clear")
	return nil
}

func (s *Service) cartIDs(userID uint) *gorm.DB {
	return s.db.Model(&Cart{}).Select("id").Where("user_id = ?", userID)
}

// getOrCreate fetches the user's cart or creates it. The insert runs in a
// savepoint so a concurrent creator's unique violation leaves tx usable,
// and the winner's row is read back.
func getOrCreate(tx *gorm.DB, userID uint) (*Cart, error) {
	var cart Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	cart = Cart{UserID: userID}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Omit(clause.Associations).Create(&cart).Error
	})
	if err == nil {
		return &cart, nil
	}
	if !pkgerrors.IsUniqueViolation(err) {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	cart = Cart{}
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return &cart, nil
}

// addItem increments the (cart, product) line or inserts it. An insert
// that loses a race against another writer falls back to the increment.
func addItem(tx *gorm.DB, cartID, productID uint, quantity int) (*CartItem, error) {
	for attempt := 0; attempt < 2; attempt++ {
		result := tx.Model(&CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", quantity),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to increment cart item: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			var item CartItem
			if err := tx.Preload("Product").Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
				return nil, fmt.Errorf("failed to reload cart item: %w", err)
			}
			return &item, nil
		}

		item := CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit(clause.Associations).Create(&item).Error
		})
		if err == nil {
			if err := tx.Preload("Product").First(&item, item.ID).Error; err != nil {
				return nil, fmt.Errorf("failed to reload cart item: %w", err)
			}
			return &item, nil
		}
		if !pkgerrors.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to insert cart item: %w", err)
		}
	}
	return nil, fmt.Errorf("cart item for product %d kept conflicting", productID)
}

// wrapInternal passes application errors through and tags the rest.
func wrapInternal(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Internal(err, message)
}
