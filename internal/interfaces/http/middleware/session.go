// internal/interfaces/http/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/infrastructure/session"
)

const ctxSessionID = "session_id"

// Session makes sure every request carries a session token, issuing a new
// one when the browser has none or an unusable one. The cookie is rewritten
// on every request so its lifetime slides with the Redis keys.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || !session.ValidID(sid) {
			sid = session.NewID()
		}
		SetSessionCookie(c, cfg, sid)
		c.Next()
	}
}

// SetSessionCookie writes the session token cookie and rebinds the request
// to it.
func SetSessionCookie(c *gin.Context, cfg config.SessionConfig, sid string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, sid, int(cfg.TTL.Seconds()), "/", cfg.CookieDomain, cfg.CookieSecure, true)
	c.Set(ctxSessionID, sid)
}

// GetSessionID returns the request's session token.
func GetSessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
