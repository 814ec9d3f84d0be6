// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

const (
	addressPath = "/cart/address/"
	paymentPath = "/cart/payment/"
)

// CheckoutHandler walks a signed-in user through address and payment
type CheckoutHandler struct {
	responder
	checkoutService *checkout.Service
	addressService  *user.AddressService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(s *Services) *CheckoutHandler {
	return &CheckoutHandler{
		responder:       newResponder(s),
		checkoutService: s.Checkout,
		addressService:  s.Addresses,
	}
}

// AddressPage handles GET /cart/address/
func (h *CheckoutHandler) AddressPage(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)

	v, err := h.checkoutService.RequireCart(ctx, userID)
	if err != nil {
		h.fail(c, err, cartPath)
		return
	}
	addresses, err := h.addressService.GetUserAddresses(ctx, userID)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	stage, err := h.checkoutService.Stage(ctx, middleware.GetSessionID(c))
	if err != nil {
		h.fail(c, err, "")
		return
	}

	h.page(c, "address.html", gin.H{
		"cart":               v,
		"cart_total":         v.TotalPrice.StringFixed(2),
		"existing_addresses": addresses,
		"delivery_address":   stage.Address,
	})
}

// SubmitAddress handles POST /cart/address/. A selected_address picks a
// saved address; otherwise the form is a new address, stored on the account
// unless save_address is switched off.
func (h *CheckoutHandler) SubmitAddress(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)
	sessionID := middleware.GetSessionID(c)

	if _, err := h.checkoutService.RequireCart(ctx, userID); err != nil {
		h.fail(c, err, cartPath)
		return
	}

	if selected := strings.TrimSpace(c.PostForm("selected_address")); selected != "" {
		id, err := strconv.ParseUint(selected, 10, 32)
		if err != nil || id == 0 {
			h.fail(c, pkgerrors.NotFound("Address not found"), addressPath)
			return
		}
		if _, err := h.checkoutService.SelectAddress(ctx, userID, sessionID, uint(id)); err != nil {
			h.fail(c, err, addressPath)
			return
		}
		h.done(c, paymentPath, "Address selected successfully", gin.H{"redirect_url": paymentPath})
		return
	}

	var req user.AddressRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, bindError(err), addressPath)
		return
	}

	save := formFlag(c.PostForm("save_address"), true)
	staged, err := h.checkoutService.StageNewAddress(ctx, userID, sessionID, &req, save)
	if err != nil {
		h.fail(c, err, addressPath)
		return
	}

	message := "Address selected successfully"
	payload := gin.H{"redirect_url": paymentPath, "is_new": staged.IsNew}
	if save {
		payload["address_id"] = staged.AddressID
		message = "Using existing address"
		if staged.IsNew {
			message = "Address saved successfully"
		}
	}
	h.done(c, paymentPath, message, payload)
}

// PaymentPage handles GET /cart/payment/
func (h *CheckoutHandler) PaymentPage(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)

	summary, err := h.checkoutService.Summary(ctx, userID, middleware.GetSessionID(c))
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if summary.Address == nil {
		h.fail(c, pkgerrors.Validation("Please provide a delivery address first"), addressPath)
		return
	}
	if summary.Cart.IsEmpty() {
		h.fail(c, pkgerrors.NotFound("Your cart is empty"), cartPath)
		return
	}

	h.page(c, "payment.html", gin.H{
		"cart":       summary.Cart,
		"cart_total": summary.Cart.TotalPrice.StringFixed(2),
		"address":    summary.Address,
		"payment":    summary.Payment,
	})
}

// SubmitPayment handles POST /cart/payment/
func (h *CheckoutHandler) SubmitPayment(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req checkout.PaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, bindError(err), paymentPath)
		return
	}

	payment, err := h.checkoutService.StagePayment(c.Request.Context(), userID, middleware.GetSessionID(c), &req)
	if err != nil {
		h.fail(c, err, paymentPath)
		return
	}

	h.done(c, paymentPath, "Payment processed successfully", gin.H{
		"order_id":    payment.OrderID,
		"receipt_url": paymentPath + "receipt/",
	})
}

// formFlag reads a checkbox-style value; absent means def.
func formFlag(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def
	case "0", "false", "off", "no":
		return false
	}
	return true
}
