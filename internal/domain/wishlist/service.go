// internal/domain/wishlist/service.go
package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles wishlist business logic
type Service struct {
	db          *gorm.DB
	cartService *cart.Service
	logger      *logrus.Logger
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, cartService *cart.Service, logger *logrus.Logger) *Service {
	return &Service{
		db:          db,
		cartService: cartService,
		logger:      logger,
	}
}

// AddResult reports the outcome of an add.
type AddResult struct {
	Item       *WishlistItem `json:"item"`
	IsNew      bool          `json:"is_new"`
	TotalItems int64         `json:"total_items"`
}

// GetWishlist returns the user's wishlist, newest first. A user without one
// gets an empty, unsaved wishlist.
func (s *Service) GetWishlist(ctx context.Context, userID uint) (*Wishlist, error) {
	var w Wishlist
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at DESC, id DESC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Wishlist{UserID: userID, Items: []WishlistItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve wishlist: %w", err)
	}
	return &w, nil
}

// AddToWishlist puts a product on the user's wishlist. Adding a product
// that is already there is not an error; IsNew tells the two apart.
func (s *Service) AddToWishlist(ctx context.Context, userID, productID uint) (*AddResult, error) {
	result := &AddResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p product.Product
		if err := tx.Select("id").First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("Product not found")
			}
			return err
		}

		w, err := getOrCreate(tx, userID)
		if err != nil {
			return err
		}

		var item WishlistItem
		err = tx.Where("wishlist_id = ? AND product_id = ?", w.ID, productID).First(&item).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = WishlistItem{WishlistID: w.ID, ProductID: productID}
			err = tx.Transaction(func(sp *gorm.DB) error {
				return sp.Omit(clause.Associations).Create(&item).Error
			})
			if err == nil {
				result.IsNew = true
			} else if pkgerrors.IsUniqueViolation(err) {
				err = tx.Where("wishlist_id = ? AND product_id = ?", w.ID, productID).First(&item).Error
			}
			if err != nil {
				return err
			}
		default:
			return err
		}
		result.Item = &item

		return tx.Model(&WishlistItem{}).Where("wishlist_id = ?", w.ID).Count(&result.TotalItems).Error
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Internal(err, "failed to add to wishlist")
	}
	return result, nil
}

// RemoveFromWishlist removes a product from the user's wishlist and returns
// the remaining count.
func (s *Service) RemoveFromWishlist(ctx context.Context, userID, productID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("product_id = ? AND wishlist_id IN (?)", productID, s.wishlistIDs(userID)).
		Delete(&WishlistItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove from wishlist: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, pkgerrors.NotFound("Product is not in your wishlist")
	}
	return s.GetWishlistCount(ctx, userID)
}

// GetWishlistCount returns the number of products on the user's wishlist.
func (s *Service) GetWishlistCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&WishlistItem{}).
		Where("wishlist_id IN (?)", s.wishlistIDs(userID)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count wishlist: %w", err)
	}
	return count, nil
}

// IsInWishlist reports whether the product is on the user's wishlist.
func (s *Service) IsInWishlist(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&WishlistItem{}).
		Where("product_id = ? AND wishlist_id IN (?)", productID, s.wishlistIDs(userID)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

// MoveToCart adds the product to the user's cart and drops it from the
// wishlist.
func (s *Service) MoveToCart(ctx context.Context, userID, productID uint, quantity int) (*cart.CartItem, error) {
	in, err := s.IsInWishlist(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !in {
		return nil, pkgerrors.NotFound("Product is not in your wishlist")
	}

	item, err := s.cartService.AddItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	if _, err := s.RemoveFromWishlist(ctx, userID, productID); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("moved to cart but wishlist entry remains")
	}
	return item, nil
}

func (s *Service) wishlistIDs(userID uint) *gorm.DB {
	return s.db.Model(&Wishlist{}).Select("id").Where("user_id = ?", userID)
}

func getOrCreate(tx *gorm.DB, userID uint) (*Wishlist, error) {
	var w Wishlist
	err := tx.Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	w = Wishlist{UserID: userID}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Omit(clause.Associations).Create(&w).Error
	})
	if err == nil {
		return &w, nil
	}
	if !pkgerrors.IsUniqueViolation(err) {
		return nil, err
	}
	w = Wishlist{}
	if err := tx.Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}
