// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

const cartPath = "/cart/"

// CartHandler handles cart endpoints. Anonymous shoppers use the session
// cart; signed-in users use their persistent cart.
type CartHandler struct {
	responder
	cartService        *cart.Service
	sessionCartService *cart.SessionCart
	productService     *product.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(s *Services) *CartHandler {
	return &CartHandler{
		responder:          newResponder(s),
		cartService:        s.Carts,
		sessionCartService: s.SessionCarts,
		productService:     s.Products,
	}
}

func (h *CartHandler) view(c *gin.Context) (*cart.View, error) {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return h.cartService.View(c.Request.Context(), userID)
	}
	return h.sessionCartService.View(c.Request.Context(), middleware.GetSessionID(c))
}

// totals adds the cart-wide counters to a JSON payload.
func (h *CartHandler) totals(c *gin.Context, payload gin.H) (gin.H, error) {
	v, err := h.view(c)
	if err != nil {
		return nil, err
	}
	payload["cart_total_items"] = v.TotalItems
	payload["cart_total_price"] = v.TotalPrice.StringFixed(2)
	return payload, nil
}

// GetCart handles GET /cart/
func (h *CartHandler) GetCart(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	h.page(c, "cart.html", gin.H{
		"cart":        v,
		"cart_items":  v.Lines,
		"total_price": v.TotalPrice.StringFixed(2),
		"total_items": v.TotalItems,
	})
}

// AddToCart handles POST /cart/add/:productId/
func (h *CartHandler) AddToCart(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := parseID(c, "productId")
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	quantity, err := formQuantity(c)
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}

	p, err := h.productService.GetProduct(ctx, productID)
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}

	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		_, err = h.cartService.AddItem(ctx, userID, productID, quantity)
	} else {
		_, err = h.sessionCartService.Add(ctx, middleware.GetSessionID(c), productID, quantity)
	}
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}

	payload, err := h.totals(c, gin.H{"product_id": productID, "quantity": quantity})
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	h.done(c, cartPath, p.Name+" added to cart!", payload)
}

// RemoveFromCart handles POST /cart/remove/:productId/
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := parseID(c, "productId")
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}

	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		err = h.cartService.RemoveProduct(ctx, userID, productID)
	} else {
		err = h.sessionCartService.Remove(ctx, middleware.GetSessionID(c), productID)
	}
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}

	payload, err := h.totals(c, gin.H{"product_id": productID})
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	h.done(c, cartPath, "Item removed from cart", payload)
}

// UpdateCartProduct handles POST /cart/update/:productId/
func (h *CartHandler) UpdateCartProduct(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := parseID(c, "productId")
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	quantity, err := formQuantity(c)
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}

	lineTotal := decimal.Zero
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		item, err := h.cartService.UpdateProduct(ctx, userID, productID, quantity)
		if err != nil {
			h.fail(c, err, cartPath)
			return
		}
		if item != nil {
			lineTotal = item.TotalPrice()
		}
	} else {
		lineTotal, err = h.updateSessionLine(ctx, middleware.GetSessionID(c), productID, quantity)
		if err != nil {
			h.fail(c, err, cartPath)
			return
		}
	}

	payload, err := h.totals(c, gin.H{
		"product_id":  productID,
		"quantity":    quantity,
		"total_price": lineTotal.StringFixed(2),
	})
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	h.done(c, cartPath, "Quantity updated", payload)
}

func (h *CartHandler) updateSessionLine(ctx context.Context, sessionID string, productID uint, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, h.sessionCartService.SetQuantity(ctx, sessionID, productID, quantity)
	}
	p, err := h.productService.GetProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := h.sessionCartService.SetQuantity(ctx, sessionID, productID, quantity); err != nil {
		return decimal.Zero, err
	}
	return p.LineTotal(quantity), nil
}

// RemoveCartItem handles POST /cart/items/:itemId/remove/
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	itemID, err := parseID(c, "itemId")
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	if err := h.cartService.RemoveItem(c.Request.Context(), userID, itemID); err != nil {
		h.fail(c, err, cartPath)
		return
	}

	payload, err := h.totals(c, gin.H{"item_id": itemID})
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	h.done(c, cartPath, "Item removed from cart", payload)
}

// UpdateCartItem handles POST /cart/items/:itemId/update/
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	itemID, err := parseID(c, "itemId")
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	quantity, err := formQuantity(c)
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}

	item, err := h.cartService.UpdateItem(c.Request.Context(), userID, itemID, quantity)
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	lineTotal := decimal.Zero
	if item != nil {
		lineTotal = item.TotalPrice()
	}

	payload, err := h.totals(c, gin.H{
		"item_id":     itemID,
		"quantity":    quantity,
		"total_price": lineTotal.StringFixed(2),
	})
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	h.done(c, cartPath, "Quantity updated", payload)
}

// ClearCart handles POST /cart/clear/
func (h *CartHandler) ClearCart(c *gin.Context) {
	var err error
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		err = h.cartService.Clear(c.Request.Context(), userID)
	} else {
		err = h.sessionCartService.Clear(c.Request.Context(), middleware.GetSessionID(c))
	}
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}

	h.done(c, cartPath, "Cart cleared", gin.H{
		"cart_total_items": 0,
		"cart_total_price": decimal.Zero.StringFixed(2),
	})
}
