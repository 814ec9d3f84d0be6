// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// AddressHandler manages the signed-in user's saved addresses
type AddressHandler struct {
	responder
	addressService *user.AddressService
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(s *Services) *AddressHandler {
	return &AddressHandler{
		responder:      newResponder(s),
		addressService: s.Addresses,
	}
}

// GetAddress handles GET /cart/address/get/:id/. It always answers JSON for
// the edit dialog.
func (h *AddressHandler) GetAddress(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		h.failJSON(c, err)
		return
	}
	address, err := h.addressService.GetAddress(c.Request.Context(), userID, id)
	if err != nil {
		h.failJSON(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": address})
}

// UpdateAddress handles POST /cart/address/update/:id/
func (h *AddressHandler) UpdateAddress(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err, profilePath)
		return
	}

	var req user.AddressRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, bindError(err), profilePath)
		return
	}

	address, err := h.addressService.UpdateAddress(c.Request.Context(), userID, id, &req)
	if err != nil {
		h.fail(c, err, profilePath)
		return
	}

	h.done(c, profilePath, "Address updated successfully", gin.H{"address_id": address.ID})
}

// DeleteAddress handles POST /cart/address/delete/:id/
func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, err, addressPath)
		return
	}
	if err := h.addressService.DeleteAddress(c.Request.Context(), userID, id); err != nil {
		h.fail(c, err, addressPath)
		return
	}

	h.done(c, addressPath, "Address deleted successfully", nil)
}
