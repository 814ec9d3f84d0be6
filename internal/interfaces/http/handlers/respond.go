// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/infrastructure/session"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/interfaces/http/view"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

// responder answers in whichever mode the request asked for: JSON for AJAX
// callers, a redirect or rendered page with flash messages for browsers.
type responder struct {
	sessions *session.Store
	views    *view.Renderer
	logger   *logrus.Logger
}

func newResponder(s *Services) responder {
	return responder{sessions: s.Sessions, views: s.Views, logger: s.Logger}
}

// page renders a browser page; AJAX callers get the same data as JSON.
func (r responder) page(c *gin.Context, name string, data gin.H) {
	if middleware.IsAJAX(c) {
		body := gin.H{"success": true}
		for k, v := range data {
			body[k] = v
		}
		c.JSON(http.StatusOK, body)
		return
	}
	r.views.Render(c, http.StatusOK, name, data)
}

// done reports a successful action. AJAX callers get message and payload as
// JSON; browsers get the message flashed and a 303 to redirectTo.
func (r responder) done(c *gin.Context, redirectTo, message string, payload gin.H) {
	if middleware.IsAJAX(c) {
		body := gin.H{"success": true}
		if message != "" {
			body["message"] = message
		}
		for k, v := range payload {
			body[k] = v
		}
		c.JSON(http.StatusOK, body)
		return
	}
	if message != "" {
		r.flash(c, session.FlashSuccess, message)
	}
	c.Redirect(http.StatusSeeOther, redirectTo)
}

// fail maps err onto a response. Browsers see the message as a flash on
// redirectTo, or on an error page when redirectTo is empty.
func (r responder) fail(c *gin.Context, err error, redirectTo string) {
	status, message, details := r.describe(c, err)

	if middleware.IsAJAX(c) {
		body := gin.H{"success": false, "message": message}
		if details != nil {
			body["errors"] = details
		}
		c.AbortWithStatusJSON(status, body)
		return
	}

	if redirectTo == "" {
		r.views.Render(c, status, "error.html", gin.H{"status": status, "message": message})
		c.Abort()
		return
	}
	r.flash(c, session.FlashError, message)
	c.Redirect(http.StatusSeeOther, redirectTo)
	c.Abort()
}

// failJSON answers with a JSON error regardless of the request mode.
func (r responder) failJSON(c *gin.Context, err error) {
	status, message, details := r.describe(c, err)
	body := gin.H{"success": false, "message": message}
	if details != nil {
		body["errors"] = details
	}
	c.AbortWithStatusJSON(status, body)
}

func (r responder) describe(c *gin.Context, err error) (int, string, any) {
	appErr := pkgerrors.As(err)
	if appErr == nil {
		if pkgerrors.IsNotFound(err) {
			meta := pkgerrors.MetadataFor(pkgerrors.CodeNotFound)
			return meta.HTTPStatus, meta.PublicMessage, nil
		}
		appErr = pkgerrors.Internal(err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(appErr.Code())
	if meta.HTTPStatus >= http.StatusInternalServerError {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.Request.URL.Path,
		}).Error("Request failed")
	}

	var details any
	if meta.DetailsAllowed {
		details = appErr.Details()
	}
	return meta.HTTPStatus, appErr.PublicMessage(), details
}

func (r responder) flash(c *gin.Context, level, message string) {
	sid := middleware.GetSessionID(c)
	if sid == "" {
		return
	}
	if err := r.sessions.AddFlash(c.Request.Context(), sid, level, message); err != nil {
		r.logger.WithError(err).Warn("Failed to store flash message")
	}
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, pkgerrors.Validation("Invalid id")
	}
	return uint(id), nil
}

// formQuantity reads the quantity form field, defaulting to 1.
func formQuantity(c *gin.Context) (int, error) {
	raw := c.DefaultPostForm("quantity", "1")
	if raw == "" {
		return 1, nil
	}
	q, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Validation("Quantity must be a whole number")
	}
	return q, nil
}

func bindError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid form data")
}
