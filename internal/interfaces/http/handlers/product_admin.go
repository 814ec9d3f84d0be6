// internal/interfaces/http/handlers/product_admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/product"
)

// AdminProductHandler handles admin product endpoints
type AdminProductHandler struct {
	responder
	productService *product.Service
}

// NewAdminProductHandler creates a new admin product handler
func NewAdminProductHandler(s *Services) *AdminProductHandler {
	return &AdminProductHandler{
		responder:      newResponder(s),
		productService: s.Products,
	}
}

// ListProducts handles GET /admin/products
func (h *AdminProductHandler) ListProducts(c *gin.Context) {
	var query product.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.failJSON(c, bindError(err))
		return
	}

	result, err := h.productService.List(c.Request.Context(), query)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// CreateProduct handles POST /admin/products
func (h *AdminProductHandler) CreateProduct(c *gin.Context) {
	var req product.ProductRequest
	if err := c.ShouldBind(&req); err != nil {
		h.failJSON(c, bindError(err))
		return
	}

	p, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Product created successfully",
		"data":    p,
	})
}

// UpdateProduct handles PUT /admin/products/:id
func (h *AdminProductHandler) UpdateProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.failJSON(c, err)
		return
	}

	var req product.ProductRequest
	if err := c.ShouldBind(&req); err != nil {
		h.failJSON(c, bindError(err))
		return
	}

	p, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully",
		"data":    p,
	})
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *AdminProductHandler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.failJSON(c, err)
		return
	}
	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}
