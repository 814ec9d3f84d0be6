// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/session"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

// AuthHandler handles login, signup, logout and token refresh
type AuthHandler struct {
	responder
	userService *user.Service
	merger      *cart.Merger
	config      *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(s *Services) *AuthHandler {
	return &AuthHandler{
		responder:   newResponder(s),
		userService: s.Users,
		merger:      s.Merger,
		config:      s.Config,
	}
}

// LoginPage handles GET /login/
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if _, ok := middleware.GetUserIDFromContext(c); ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.page(c, "login.html", gin.H{"next": safeNext(c.Query("next"))})
}

// Login handles POST /login/
func (h *AuthHandler) Login(c *gin.Context) {
	next := safeNext(c.DefaultPostForm("next", c.Query("next")))

	var req user.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, bindError(err), loginPath(next))
		return
	}

	resp, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, loginPath(next))
		return
	}

	h.signIn(c, resp)
	name := resp.User.FirstName
	if name == "" {
		name = resp.User.Username
	}
	h.done(c, redirectTarget(next), "Welcome back, "+name+"!", authPayload(resp, redirectTarget(next)))
}

// SignupPage handles GET /signup/
func (h *AuthHandler) SignupPage(c *gin.Context) {
	if _, ok := middleware.GetUserIDFromContext(c); ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.page(c, "signup.html", nil)
}

// Signup handles POST /signup/
func (h *AuthHandler) Signup(c *gin.Context) {
	var req user.SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, bindError(err), "/signup/")
		return
	}

	resp, err := h.userService.Signup(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "/signup/")
		return
	}

	h.signIn(c, resp)
	h.done(c, "/", "Welcome, "+resp.User.FirstName+"! Your account has been created successfully.", authPayload(resp, "/"))
}

// Logout handles GET and POST /logout/. The old session is destroyed and a
// fresh token issued, so nothing from it survives.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if sid := middleware.GetSessionID(c); sid != "" {
		if err := h.sessions.Destroy(ctx, sid); err != nil {
			h.logger.WithError(err).Warn("Failed to destroy session on logout")
		}
	}
	middleware.SetSessionCookie(c, h.config.Session, session.NewID())
	h.clearAuthCookies(c)

	h.done(c, "/", "You have been logged out successfully.", nil)
}

// RefreshToken handles POST /auth/refresh/
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `form:"refresh_token" json:"refresh_token"`
	}
	_ = c.ShouldBind(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(middleware.RefreshTokenCookie)
	}
	if req.RefreshToken == "" {
		h.fail(c, pkgerrors.New(pkgerrors.CodeUnauthorized, "Refresh token is required"), loginPath(""))
		return
	}

	resp, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err, loginPath(""))
		return
	}

	h.setAuthCookies(c, resp)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  resp.AccessToken,
		"refresh_token": resp.RefreshToken,
		"expires_in":    resp.ExpiresIn,
	})
}

// signIn sets the auth cookies and folds the session cart into the user's
// cart. A failed merge leaves the session cart in place and does not block
// the login.
func (h *AuthHandler) signIn(c *gin.Context, resp *user.AuthResponse) {
	h.setAuthCookies(c, resp)

	sid := middleware.GetSessionID(c)
	if sid == "" {
		return
	}
	result, err := h.merger.Merge(c.Request.Context(), resp.User.ID, sid)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", resp.User.ID).Error("Failed to merge session cart")
		return
	}
	if result.Lines > 0 {
		h.logger.WithFields(logrus.Fields{
			"user_id": resp.User.ID,
			"lines":   result.Lines,
			"units":   result.Units,
		}).Info("Session cart merged")
	}
}

// setAuthCookies stores the token pair. Remember-me cookies persist for the
// remember-me window; otherwise they end with the browser session.
func (h *AuthHandler) setAuthCookies(c *gin.Context, resp *user.AuthResponse) {
	maxAge := 0
	if resp.RememberMe {
		maxAge = int(h.config.JWT.RememberMeExpiry.Seconds())
	}
	secure := h.config.Session.CookieSecure
	domain := h.config.Session.CookieDomain

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, resp.AccessToken, maxAge, "/", domain, secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, resp.RefreshToken, maxAge, "/auth/", domain, secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	secure := h.config.Session.CookieSecure
	domain := h.config.Session.CookieDomain

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", domain, secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/auth/", domain, secure, true)
}

func authPayload(resp *user.AuthResponse, redirectURL string) gin.H {
	return gin.H{
		"user":          resp.User,
		"access_token":  resp.AccessToken,
		"refresh_token": resp.RefreshToken,
		"expires_in":    resp.ExpiresIn,
		"redirect_url":  redirectURL,
	}
}

// safeNext keeps next only when it is a path on this site.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	return next
}

func redirectTarget(next string) string {
	if next == "" {
		return "/"
	}
	return next
}

func loginPath(next string) string {
	if next == "" {
		return "/login/"
	}
	return "/login/?next=" + url.QueryEscape(next)
}
