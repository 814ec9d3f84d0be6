// internal/interfaces/http/middleware/response_mode.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxAJAX = "ajax"

// ResponseMode decides once per request whether the caller wants JSON.
func ResponseMode() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxAJAX, wantsJSON(c.Request.Header.Get("X-Requested-With"), c.Request.Header.Get("Accept")))
		c.Next()
	}
}

func wantsJSON(requestedWith, accept string) bool {
	if strings.EqualFold(requestedWith, "XMLHttpRequest") {
		return true
	}
	first := strings.TrimSpace(strings.SplitN(accept, ",", 2)[0])
	first = strings.TrimSpace(strings.SplitN(first, ";", 2)[0])
	return strings.EqualFold(first, "application/json")
}

// IsAJAX reports whether the response should be JSON. Requests that skipped
// ResponseMode fall back to inspecting the headers directly.
func IsAJAX(c *gin.Context) bool {
	if v, ok := c.Get(ctxAJAX); ok {
		return v.(bool)
	}
	return wantsJSON(c.Request.Header.Get("X-Requested-With"), c.Request.Header.Get("Accept"))
}
