// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/upload"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

// UploadHandler handles admin image uploads
type UploadHandler struct {
	responder
	uploadService  *upload.Service
	productService *product.Service
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(s *Services) *UploadHandler {
	return &UploadHandler{
		responder:      newResponder(s),
		uploadService:  s.Uploads,
		productService: s.Products,
	}
}

// UploadProductImage handles POST /admin/products/:id/image. The previous
// image file is removed once the product points at the new one.
func (h *UploadHandler) UploadProductImage(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		h.failJSON(c, err)
		return
	}
	if _, err := h.productService.GetProduct(ctx, id); err != nil {
		h.failJSON(c, err)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		h.failJSON(c, pkgerrors.Validation("No image file provided"))
		return
	}

	file, err := h.uploadService.SaveImage(ctx, header, upload.CategoryProducts, userID)
	if err != nil {
		h.failJSON(c, err)
		return
	}

	previous, err := h.productService.SetImage(ctx, id, file.URL)
	if err != nil {
		if cleanupErr := h.uploadService.DeleteByURL(ctx, file.URL); cleanupErr != nil {
			h.logger.WithError(cleanupErr).Warn("Failed to remove orphaned upload")
		}
		h.failJSON(c, err)
		return
	}
	if previous != "" {
		if err := h.uploadService.DeleteByURL(ctx, previous); err != nil {
			h.logger.WithError(err).WithField("url", previous).Warn("Failed to delete previous product image")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Image uploaded successfully",
		"data":    file,
	})
}
