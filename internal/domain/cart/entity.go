// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
)

// Cart is the persistent cart of an authenticated user. A user owns at
// most one.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`

	User *user.User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// CartItem is one product line of a persistent cart. (cart_id, product_id)
// is unique, so repeated adds grow Quantity instead of adding rows.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product;index" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product"`
}

// TableName overrides the table name
func (Cart) TableName() string {
	return "carts"
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// TotalPrice is the exact line total.
func (i *CartItem) TotalPrice() decimal.Decimal {
	return i.Product.LineTotal(i.Quantity)
}

// TotalPrice sums price times quantity over loaded items.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].TotalPrice())
	}
	return total
}

// TotalItems sums quantities over loaded items.
func (c *Cart) TotalItems() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Line is a cart row as shown to the shopper, whichever store backs it.
// ItemID is zero for session lines.
type Line struct {
	ItemID     uint            `json:"item_id,omitempty"`
	ProductID  uint            `json:"product_id"`
	Product    product.Product `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// View is a rendered cart.
type View struct {
	Persistent bool            `json:"persistent"`
	Lines      []Line          `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

// IsEmpty reports whether the cart has no lines.
func (v *View) IsEmpty() bool {
	return len(v.Lines) == 0
}

func viewOf(c *Cart) *View {
	v := &View{Persistent: true, TotalPrice: decimal.Zero, Lines: []Line{}}
	if c == nil {
		return v
	}
	for _, item := range c.Items {
		v.Lines = append(v.Lines, Line{
			ItemID:     item.ID,
			ProductID:  item.ProductID,
			Product:    item.Product,
			Quantity:   item.Quantity,
			TotalPrice: item.TotalPrice(),
		})
	}
	v.TotalPrice = c.TotalPrice()
	v.TotalItems = c.TotalItems()
	return v
}
