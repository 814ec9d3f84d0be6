// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

const wishlistPath = "/wishlist/"

// WishlistHandler handles wishlist endpoints. Every route requires login.
type WishlistHandler struct {
	responder
	wishlistService *wishlist.Service
	cartService     *cart.Service
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(s *Services) *WishlistHandler {
	return &WishlistHandler{
		responder:       newResponder(s),
		wishlistService: s.Wishlists,
		cartService:     s.Carts,
	}
}

// GetWishlist handles GET /wishlist/
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	w, err := h.wishlistService.GetWishlist(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	h.page(c, "wishlist.html", gin.H{
		"wishlist":       w,
		"wishlist_items": w.Items,
		"total_items":    w.TotalItems(),
	})
}

// AddToWishlist handles POST /wishlist/add/:productId/
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	productID, err := parseID(c, "productId")
	if err != nil {
		h.fail(c, err, "/")
		return
	}

	result, err := h.wishlistService.AddToWishlist(c.Request.Context(), userID, productID)
	if err != nil {
		h.fail(c, err, "/")
		return
	}

	h.done(c, fmt.Sprintf("/product/%d/", productID), "Product added to wishlist!", gin.H{
		"is_new":      result.IsNew,
		"total_items": result.TotalItems,
	})
}

// RemoveFromWishlist handles POST /wishlist/remove/:productId/
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	productID, err := parseID(c, "productId")
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}

	remaining, err := h.wishlistService.RemoveFromWishlist(c.Request.Context(), userID, productID)
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}

	h.done(c, wishlistPath, "Product removed from wishlist!", gin.H{"total_items": remaining})
}

// CheckWishlist handles GET /wishlist/check/:productId/
func (h *WishlistHandler) CheckWishlist(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)

	productID, err := parseID(c, "productId")
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}

	in, err := h.wishlistService.IsInWishlist(ctx, userID, productID)
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}
	total, err := h.wishlistService.GetWishlistCount(ctx, userID)
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"in_wishlist": in,
		"total_items": total,
	})
}

// MoveToCart handles POST /wishlist/move/:productId/
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)

	productID, err := parseID(c, "productId")
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}
	quantity, err := formQuantity(c)
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}

	item, err := h.wishlistService.MoveToCart(ctx, userID, productID, quantity)
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}
	v, err := h.cartService.View(ctx, userID)
	if err != nil {
		h.fail(c, err, wishlistPath)
		return
	}

	h.done(c, cartPath, "Product moved to cart", gin.H{
		"product_id":       productID,
		"quantity":         item.Quantity,
		"cart_total_items": v.TotalItems,
		"cart_total_price": v.TotalPrice.StringFixed(2),
	})
}
