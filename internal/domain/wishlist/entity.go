// internal/domain/wishlist/entity.go
package wishlist

import (
	"time"

	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
)

// Wishlist is a user's saved-for-later list. A user owns at most one.
type Wishlist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Items     []WishlistItem `gorm:"foreignKey:WishlistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`

	User *user.User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// WishlistItem is one product on a wishlist; a product appears at most once.
type WishlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WishlistID uint      `gorm:"not null;uniqueIndex:idx_wishlist_items_wishlist_product" json:"wishlist_id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_wishlist_items_wishlist_product;index" json:"product_id"`
	AddedAt    time.Time `gorm:"autoCreateTime" json:"added_at"`

	Product product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product"`
}

// TableName overrides the table name
func (Wishlist) TableName() string {
	return "wishlists"
}

// TableName overrides the table name
func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// TotalItems is the number of products on the list.
func (w *Wishlist) TotalItems() int {
	return len(w.Items)
}
