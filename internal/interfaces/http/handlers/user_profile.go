// internal/interfaces/http/handlers/user_profile.go
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/upload"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

const profilePath = "/profile/"

// UserProfileHandler handles the account page
type UserProfileHandler struct {
	responder
	userService     *user.Service
	addressService  *user.AddressService
	wishlistService *wishlist.Service
	uploadService   *upload.Service
}

// NewUserProfileHandler creates a new user profile handler
func NewUserProfileHandler(s *Services) *UserProfileHandler {
	return &UserProfileHandler{
		responder:       newResponder(s),
		userService:     s.Users,
		addressService:  s.Addresses,
		wishlistService: s.Wishlists,
		uploadService:   s.Uploads,
	}
}

// GetProfile handles GET /profile/
func (h *UserProfileHandler) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	addresses, err := h.addressService.GetUserAddresses(ctx, userID)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	w, err := h.wishlistService.GetWishlist(ctx, userID)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	h.page(c, "profile.html", gin.H{
		"user":           profile,
		"addresses":      addresses,
		"wishlist":       w,
		"wishlist_items": w.Items,
	})
}

// UpdateProfile handles POST /profile/. A profile_picture file replaces the
// current avatar.
func (h *UserProfileHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.GetUserIDFromContext(c)

	var req user.ProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, bindError(err), profilePath)
		return
	}

	profile, err := h.userService.UpdateProfile(ctx, userID, &req)
	if err != nil {
		h.fail(c, err, profilePath)
		return
	}

	header, err := c.FormFile("profile_picture")
	switch {
	case err == nil:
		if profile, err = h.replaceAvatar(c, profile, header); err != nil {
			h.fail(c, err, profilePath)
			return
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		h.fail(c, bindError(err), profilePath)
		return
	}

	h.done(c, profilePath, "Profile updated successfully!", gin.H{"user": profile})
}

func (h *UserProfileHandler) replaceAvatar(c *gin.Context, profile *user.User, header *multipart.FileHeader) (*user.User, error) {
	ctx := c.Request.Context()

	file, err := h.uploadService.SaveImage(ctx, header, upload.CategoryProfilePictures, profile.ID)
	if err != nil {
		return nil, err
	}
	if err := h.userService.SetAvatar(ctx, profile.ID, file.URL); err != nil {
		return nil, err
	}

	if previous := profile.Avatar; previous != "" {
		if err := h.uploadService.DeleteByURL(ctx, previous); err != nil {
			h.logger.WithError(err).WithField("url", previous).Warn("Failed to delete previous avatar")
		}
	}
	profile.Avatar = file.URL
	return profile, nil
}
