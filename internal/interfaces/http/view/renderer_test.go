package view

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/infrastructure/session"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, r *Renderer, store *session.Store, sid string) *httptest.ResponseRecorder {
	t.Helper()
	cfg := testutil.Config()

	engine := gin.New()
	engine.Use(middleware.Session(cfg.Session))
	engine.GET("/", func(c *gin.Context) {
		r.Render(c, http.StatusOK, "index.html", gin.H{"title": "<Tiles>"})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Session.CookieName, Value: sid})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRenderJSONEnvelopeWithFlashes(t *testing.T) {
	_, client := testutil.NewRedis(t)
	store := session.NewStore(client, testutil.Config().Session)
	sid := session.NewID()
	require.NoError(t, store.AddFlash(context.Background(), sid, session.FlashSuccess, "Saved"))

	r, err := New("", store, logger.Discard())
	require.NoError(t, err)
	assert.False(t, r.HTMLEnabled())

	w := serve(t, r, store, sid)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Page string `json:"page"`
		Data struct {
			Title         string          `json:"title"`
			Messages      []session.Flash `json:"messages"`
			Authenticated bool            `json:"is_authenticated"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "index", body.Page)
	assert.Equal(t, "<Tiles>", body.Data.Title)
	assert.False(t, body.Data.Authenticated)
	require.Len(t, body.Data.Messages, 1)
	assert.Equal(t, "Saved", body.Data.Messages[0].Message)

	// popped once
	w = serve(t, r, store, sid)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Data.Messages)
}

func TestRenderHTMLTemplates(t *testing.T) {
	dir := t.TempDir()
	page := `{{define "index.html"}}<h1>{{.title}}</h1>{{range .messages}}<p>{{.Message}}</p>{{end}}{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644))

	_, client := testutil.NewRedis(t)
	store := session.NewStore(client, testutil.Config().Session)

	r, err := New(filepath.Join(dir, "*.html"), store, logger.Discard())
	require.NoError(t, err)
	assert.True(t, r.HTMLEnabled())

	w := serve(t, r, store, session.NewID())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h1>&lt;Tiles&gt;</h1>")
}

func TestEmptyGlobFallsBackToJSON(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "*.html"), nil, logger.Discard())
	require.NoError(t, err)
	assert.False(t, r.HTMLEnabled())
}
