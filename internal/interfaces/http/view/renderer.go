// internal/interfaces/http/view/renderer.go
package view

import (
	"html/template"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/infrastructure/session"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// Renderer writes pages for browser requests. With templates loaded it
// renders HTML; otherwise it answers with a JSON page envelope carrying the
// same data, which keeps the storefront usable as a plain API.
type Renderer struct {
	templates *template.Template
	sessions  *session.Store
	logger    *logrus.Logger
}

// New loads the templates matching glob. An empty glob, or one matching
// no files, selects JSON rendering.
func New(glob string, sessions *session.Store, logger *logrus.Logger) (*Renderer, error) {
	r := &Renderer{sessions: sessions, logger: logger}
	if glob == "" {
		return r, nil
	}

	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		logger.WithField("glob", glob).Warn("No templates found, rendering pages as JSON")
		return r, nil
	}

	tmpl, err := template.New("").Funcs(Funcs()).ParseFiles(matches...)
	if err != nil {
		return nil, err
	}
	r.templates = tmpl
	logger.WithField("templates", len(matches)).Info("Templates loaded")
	return r, nil
}

// Funcs are the helpers available to templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"add":   func(a, b int) int { return a + b },
		"sub":   func(a, b int) int { return a - b },
	}
}

// HTMLEnabled reports whether templates were loaded.
func (r *Renderer) HTMLEnabled() bool {
	return r.templates != nil
}

// Render writes page with data. Pending flash messages and the caller's
// identity are added under "messages", "is_authenticated" and "username".
func (r *Renderer) Render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	messages := []session.Flash{}
	if sid := middleware.GetSessionID(c); sid != "" && r.sessions != nil {
		flashes, err := r.sessions.PopFlashes(c.Request.Context(), sid)
		if err != nil {
			r.logger.WithError(err).Warn("Failed to load flash messages")
		} else if flashes != nil {
			messages = flashes
		}
	}
	data["messages"] = messages

	_, authenticated := middleware.GetUserIDFromContext(c)
	data["is_authenticated"] = authenticated
	data["username"] = middleware.GetUsernameFromContext(c)

	if r.templates != nil && r.templates.Lookup(page) != nil {
		c.Render(status, render.HTML{Template: r.templates, Name: page, Data: data})
		return
	}

	c.JSON(status, gin.H{
		"page": strings.TrimSuffix(page, filepath.Ext(page)),
		"data": data,
	})
}
