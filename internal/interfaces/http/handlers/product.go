// internal/interfaces/http/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// ProductHandler serves the public catalog pages
type ProductHandler struct {
	responder
	productService  *product.Service
	categoryService *product.CategoryService
	wishlistService *wishlist.Service
	config          config.CatalogConfig
}

// NewProductHandler creates a new product handler
func NewProductHandler(s *Services) *ProductHandler {
	return &ProductHandler{
		responder:       newResponder(s),
		productService:  s.Products,
		categoryService: s.Categories,
		wishlistService: s.Wishlists,
		config:          s.Config.Catalog,
	}
}

// Home handles GET /
func (h *ProductHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()

	products, err := h.productService.Latest(ctx, h.config.HomeProducts)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	categories, err := h.categoryService.GetCategories(ctx)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	h.page(c, "index.html", gin.H{
		"products":   products,
		"categories": categories,
	})
}

// ListProducts handles GET /products/
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var query product.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.fail(c, bindError(err), "/products/")
		return
	}

	result, err := h.productService.List(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	h.page(c, "products_list.html", gin.H{
		"products":          result.Products,
		"categories":        result.Categories,
		"selected_category": result.SelectedCategory,
		"sort":              result.Sort,
		"search":            result.Search,
		"pagination":        result.Pagination,
	})
}

// GetProduct handles GET /product/:id/
func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err, "")
		return
	}

	p, err := h.productService.GetProduct(ctx, id)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	related, err := h.productService.Related(ctx, p, h.config.RelatedLimit)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	inWishlist := false
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		if inWishlist, err = h.wishlistService.IsInWishlist(ctx, userID, p.ID); err != nil {
			h.fail(c, err, "")
			return
		}
	}

	h.page(c, "product_detail.html", gin.H{
		"product":          p,
		"related_products": related,
		"in_wishlist":      inWishlist,
	})
}
