// internal/interfaces/http/handlers/category.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/product"
)

// CategoryHandler handles admin category endpoints
type CategoryHandler struct {
	responder
	categoryService *product.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(s *Services) *CategoryHandler {
	return &CategoryHandler{
		responder:       newResponder(s),
		categoryService: s.Categories,
	}
}

// GetCategories handles GET /admin/categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categoryService.GetCategories(c.Request.Context())
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
}

// CreateCategory handles POST /admin/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req product.CategoryRequest
	if err := c.ShouldBind(&req); err != nil {
		h.failJSON(c, bindError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Category created successfully",
		"data":    category,
	})
}

// UpdateCategory handles PUT /admin/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.failJSON(c, err)
		return
	}

	var req product.CategoryRequest
	if err := c.ShouldBind(&req); err != nil {
		h.failJSON(c, bindError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Category updated successfully",
		"data":    category,
	})
}

// DeleteCategory handles DELETE /admin/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.failJSON(c, err)
		return
	}
	if err := h.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted successfully"})
}
