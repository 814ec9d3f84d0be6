// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/pdf"
)

// InvoiceHandler serves the receipt for a completed checkout
type InvoiceHandler struct {
	responder
	checkoutService *checkout.Service
	userService     *user.Service
	pdfService      *pdf.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(s *Services) *InvoiceHandler {
	return &InvoiceHandler{
		responder:       newResponder(s),
		checkoutService: s.Checkout,
		userService:     s.Users,
		pdfService:      s.Receipts,
	}
}

// GenerateReceipt handles GET /cart/payment/receipt/. format=html returns
// the markup instead of the PDF.
func (h *InvoiceHandler) GenerateReceipt(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		h.fail(c, err, paymentPath)
		return
	}
	summary, err := h.checkoutService.Summary(ctx, userID, middleware.GetSessionID(c))
	if err != nil {
		h.fail(c, err, paymentPath)
		return
	}
	data := h.pdfService.NewReceiptData(profile.GetDisplayName(), summary)

	if c.Query("format") == "html" {
		body, err := h.pdfService.RenderReceiptHTML(data)
		if err != nil {
			h.fail(c, err, paymentPath)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
		return
	}

	buf, err := h.pdfService.GenerateReceipt(data)
	if err != nil {
		h.fail(c, err, paymentPath)
		return
	}

	filename := fmt.Sprintf("receipt-%s.pdf", strings.TrimPrefix(summary.Payment.OrderID, "#"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
