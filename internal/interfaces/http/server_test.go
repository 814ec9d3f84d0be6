package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/testutil"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	t       *testing.T
	handler http.Handler
	db      *gorm.DB
}

func newApp(t *testing.T) *app {
	t.Helper()

	db := testutil.NewDB(t, postgres.Models()...)
	_, rdb := testutil.NewRedis(t)

	srv, err := NewServer(testutil.Config(), db, rdb, logger.Discard(), prometheus.NewRegistry())
	require.NoError(t, err)
	return &app{t: t, handler: srv.Handler(), db: db}
}

func (a *app) product(id uint, name, price string) {
	a.t.Helper()

	var cat product.Category
	require.NoError(a.t, a.db.Where(product.Category{Name: "Floor Tiles", Slug: "floor-tiles"}).FirstOrCreate(&cat).Error)
	p := product.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), CategoryID: cat.ID}
	require.NoError(a.t, a.db.Omit("Category").Create(&p).Error)
}

func (a *app) user(username, password string) user.User {
	a.t.Helper()

	hash, err := auth.NewPasswordManager(testutil.Config()).HashPassword(password)
	require.NoError(a.t, err)
	u := user.User{Username: username, Email: username + "@example.com", Password: hash, FirstName: strings.ToUpper(username[:1]) + username[1:], IsActive: true}
	require.NoError(a.t, a.db.Create(&u).Error)
	return u
}

// browser carries cookies between requests the way a real client would.
type browser struct {
	app     *app
	cookies map[string]string
}

func (a *app) browser() *browser {
	return &browser{app: a, cookies: map[string]string{}}
}

func (b *browser) do(method, path string, form url.Values, ajax bool) *httptest.ResponseRecorder {
	b.app.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	w := httptest.NewRecorder()
	b.app.handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return w
}

func (b *browser) json(method, path string, form url.Values) (int, map[string]any) {
	b.app.t.Helper()

	w := b.do(method, path, form, true)
	var body map[string]any
	require.NoError(b.app.t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func (b *browser) login(username, password string) {
	b.app.t.Helper()

	w := b.do(http.MethodPost, "/login/", url.Values{"username": {username}, "password": {password}}, false)
	require.Equal(b.app.t, http.StatusSeeOther, w.Code, w.Body.String())
	require.NotEmpty(b.app.t, b.cookies["access_token"])
}

func TestHealthAndReady(t *testing.T) {
	a := newApp(t)

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
}

func TestFirstRequestIssuesSessionCookie(t *testing.T) {
	a := newApp(t)
	b := a.browser()

	b.do(http.MethodGet, "/cart/", nil, true)
	sid := b.cookies["session_id"]
	require.NotEmpty(t, sid)

	b.do(http.MethodGet, "/cart/", nil, true)
	assert.Equal(t, sid, b.cookies["session_id"])
}

func TestAjaxAddToCartPayload(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	b := a.browser()

	code, body := b.json(http.MethodPost, "/cart/add/10/", url.Values{"quantity": {"2"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Premium Ceramic Floor Tile added to cart!", body["message"])
	assert.Equal(t, float64(10), body["product_id"])
	assert.Equal(t, float64(2), body["quantity"])
	assert.Equal(t, float64(2), body["cart_total_items"])
	assert.Equal(t, "99.98", body["cart_total_price"])

	code, body = b.json(http.MethodPost, "/cart/add/999/", url.Values{"quantity": {"1"}})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Product not found", body["message"])

	code, body = b.json(http.MethodPost, "/cart/add/10/", url.Values{"quantity": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestHumanAddRedirectsToCart(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	b := a.browser()

	w := b.do(http.MethodPost, "/cart/add/10/", url.Values{"quantity": {"1"}}, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart/", w.Header().Get("Location"))

	// the flash shows up on the next rendered page, once
	w = b.do(http.MethodGet, "/cart/", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Premium Ceramic Floor Tile added to cart!")

	w = b.do(http.MethodGet, "/cart/", nil, false)
	assert.NotContains(t, w.Body.String(), "added to cart!")
}

func TestSessionCartUpdateAndRemoveByProduct(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	a.product(11, "Elegant Wall Tile", "39.99")
	b := a.browser()

	b.json(http.MethodPost, "/cart/add/10/", url.Values{"quantity": {"1"}})
	b.json(http.MethodPost, "/cart/add/11/", url.Values{"quantity": {"1"}})

	code, body := b.json(http.MethodPost, "/cart/update/10/", url.Values{"quantity": {"3"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "149.97", body["total_price"])
	assert.Equal(t, float64(4), body["cart_total_items"])

	code, body = b.json(http.MethodPost, "/cart/remove/11/", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["cart_total_items"])

	code, body = b.json(http.MethodPost, "/cart/update/10/", url.Values{"quantity": {"0"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0.00", body["total_price"])
	assert.Equal(t, float64(0), body["cart_total_items"])
}

func TestLoginMergesSessionCart(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	a.product(11, "Elegant Wall Tile", "39.99")
	ana := a.user("ana", "secret123")

	// ana already has one unit of product 10 saved
	carts := cart.NewService(a.db, nil, logger.Discard())
	_, err := carts.AddItem(context.Background(), ana.ID, 10, 1)
	require.NoError(t, err)

	b := a.browser()
	b.json(http.MethodPost, "/cart/add/10/", url.Values{"quantity": {"2"}})
	b.json(http.MethodPost, "/cart/add/11/", url.Values{"quantity": {"1"}})
	sid := b.cookies["session_id"]

	b.login("ana", "secret123")
	assert.Equal(t, sid, b.cookies["session_id"])

	code, body := b.json(http.MethodGet, "/cart/", nil)
	require.Equal(t, http.StatusOK, code)
	view := body["cart"].(map[string]any)
	assert.Equal(t, true, view["persistent"])
	assert.Equal(t, float64(4), view["total_items"])

	quantities := map[float64]float64{}
	for _, raw := range view["items"].([]any) {
		line := raw.(map[string]any)
		quantities[line["product_id"].(float64)] = line["quantity"].(float64)
	}
	assert.Equal(t, map[float64]float64{10: 3, 11: 1}, quantities)

	// the session cart was emptied by the merge
	anon := a.browser()
	anon.cookies["session_id"] = sid
	_, body = anon.json(http.MethodGet, "/cart/", nil)
	assert.Equal(t, float64(0), body["total_items"])
}

func TestSignupMergesSessionCart(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")

	b := a.browser()
	b.json(http.MethodPost, "/cart/add/10/", url.Values{"quantity": {"2"}})
	sid := b.cookies["session_id"]

	w := b.do(http.MethodPost, "/signup/", url.Values{
		"first_name": {"Rita"},
		"email":      {"rita@example.com"},
		"password1":  {"secret123"},
		"password2":  {"secret123"},
	}, false)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotEmpty(t, b.cookies["access_token"])

	var rita user.User
	require.NoError(t, a.db.Where("email = ?", "rita@example.com").First(&rita).Error)
	var items []cart.CartItem
	owned := a.db.Model(&cart.Cart{}).Select("id").Where("user_id = ?", rita.ID)
	require.NoError(t, a.db.Where("cart_id IN (?)", owned).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, uint(10), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)

	anon := a.browser()
	anon.cookies["session_id"] = sid
	_, body := anon.json(http.MethodGet, "/cart/", nil)
	assert.Equal(t, float64(0), body["total_items"])
}

func TestLoginFailureFlashesAndRedirects(t *testing.T) {
	a := newApp(t)
	a.user("ana", "secret123")
	b := a.browser()

	w := b.do(http.MethodPost, "/login/?next=/wishlist/", url.Values{"username": {"ana"}, "password": {"wrong"}}, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login/?next=%2Fwishlist%2F", w.Header().Get("Location"))
	assert.Empty(t, b.cookies["access_token"])

	code, body := b.json(http.MethodPost, "/login/", url.Values{"username": {"ana"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password. Please try again.", body["message"])
}

func TestLoginHonoursLocalNextOnly(t *testing.T) {
	a := newApp(t)
	a.user("ana", "secret123")

	b := a.browser()
	w := b.do(http.MethodPost, "/login/", url.Values{"username": {"ana"}, "password": {"secret123"}, "next": {"/wishlist/"}}, false)
	assert.Equal(t, "/wishlist/", w.Header().Get("Location"))

	b = a.browser()
	w = b.do(http.MethodPost, "/login/", url.Values{"username": {"ana"}, "password": {"secret123"}, "next": {"https://evil.example/"}}, false)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestProtectedRoutesNeedLogin(t *testing.T) {
	a := newApp(t)
	b := a.browser()

	w := b.do(http.MethodGet, "/wishlist/", nil, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login/?next=%2Fwishlist%2F", w.Header().Get("Location"))

	code, body := b.json(http.MethodPost, "/wishlist/add/1/", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = b.json(http.MethodPost, "/cart/items/1/remove/", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCartItemRoutesHideOtherUsersItems(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	a.user("ana", "secret123")
	bob := a.user("bob", "secret123")

	carts := cart.NewService(a.db, nil, logger.Discard())
	item, err := carts.AddItem(context.Background(), bob.ID, 10, 2)
	require.NoError(t, err)

	b := a.browser()
	b.login("ana", "secret123")

	code, body := b.json(http.MethodPost, fmt.Sprintf("/cart/items/%d/remove/", item.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Cart item not found", body["message"])

	code, _ = b.json(http.MethodPost, fmt.Sprintf("/cart/items/%d/update/", item.ID), url.Values{"quantity": {"5"}})
	assert.Equal(t, http.StatusNotFound, code)

	view, err := carts.View(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalItems)
}

func TestWishlistFlow(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	a.user("ana", "secret123")
	b := a.browser()
	b.login("ana", "secret123")

	code, body := b.json(http.MethodPost, "/wishlist/add/10/", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["is_new"])
	assert.Equal(t, float64(1), body["total_items"])

	_, body = b.json(http.MethodPost, "/wishlist/add/10/", nil)
	assert.Equal(t, false, body["is_new"])
	assert.Equal(t, float64(1), body["total_items"])

	_, body = b.json(http.MethodGet, "/wishlist/check/10/", nil)
	assert.Equal(t, true, body["in_wishlist"])

	code, body = b.json(http.MethodPost, "/wishlist/move/10/", url.Values{"quantity": {"2"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["cart_total_items"])

	_, body = b.json(http.MethodGet, "/wishlist/check/10/", nil)
	assert.Equal(t, false, body["in_wishlist"])
	assert.Equal(t, float64(0), body["total_items"])
}

func TestLogoutStartsFreshSession(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	b := a.browser()

	b.json(http.MethodPost, "/cart/add/10/", url.Values{"quantity": {"1"}})
	old := b.cookies["session_id"]

	w := b.do(http.MethodPost, "/logout/", nil, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotEqual(t, old, b.cookies["session_id"])

	w = b.do(http.MethodGet, "/cart/", nil, false)
	assert.Contains(t, w.Body.String(), "You have been logged out successfully.")
	assert.Contains(t, w.Body.String(), `"total_items":0`)
}

func TestCheckoutFlow(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	ana := a.user("ana", "secret123")
	b := a.browser()
	b.login("ana", "secret123")

	// nothing to check out yet
	code, _ := b.json(http.MethodPost, "/cart/address/", url.Values{"selected_address": {"1"}})
	assert.Equal(t, http.StatusNotFound, code)

	b.json(http.MethodPost, "/cart/add/10/", url.Values{"quantity": {"2"}})

	code, body := b.json(http.MethodPost, "/cart/payment/", url.Values{"payment_method": {"cod"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please provide a delivery address first", body["message"])

	address := url.Values{
		"first_name": {"Ana"}, "last_name": {"Silva"}, "email": {"ana@example.com"},
		"address": {"1 Tile Road"}, "city": {"Porto"}, "state": {"Porto"},
		"postal_code": {"4000"}, "country": {"PT"}, "phone": {"555"},
	}
	code, body = b.json(http.MethodPost, "/cart/address/", address)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Address saved successfully", body["message"])
	assert.Equal(t, true, body["is_new"])
	assert.Equal(t, "/cart/payment/", body["redirect_url"])
	addressID := body["address_id"].(float64)

	_, body = b.json(http.MethodPost, "/cart/address/", address)
	assert.Equal(t, "Using existing address", body["message"])
	assert.Equal(t, addressID, body["address_id"])

	code, body = b.json(http.MethodPost, "/cart/address/", url.Values{"first_name": {"Ana"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please fill all required fields", body["message"])

	code, body = b.json(http.MethodPost, "/cart/payment/", url.Values{"payment_method": {"card"}, "cardholder": {"Ana"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please fill all card details", body["message"])

	code, body = b.json(http.MethodPost, "/cart/payment/", url.Values{
		"payment_method": {"card"}, "cardholder": {"Ana Silva"},
		"cardnumber": {"4111 1111 1111 1111"}, "expiry": {"12/30"}, "cvv": {"123"},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Payment processed successfully", body["message"])
	orderID := body["order_id"].(string)
	assert.True(t, strings.HasPrefix(orderID, fmt.Sprintf("#ORD%d", ana.ID)))

	w := b.do(http.MethodGet, "/cart/payment/receipt/?format=html", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), orderID)
	assert.Contains(t, w.Body.String(), "**** **** **** 1111")
	assert.NotContains(t, w.Body.String(), "4111 1111 1111 1111")

	code, body = b.json(http.MethodGet, fmt.Sprintf("/cart/address/get/%d/", int(addressID)), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1 Tile Road", body["data"].(map[string]any)["address"])

	code, body = b.json(http.MethodPost, fmt.Sprintf("/cart/address/delete/%d/", int(addressID)), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Address deleted successfully", body["message"])

	code, _ = b.json(http.MethodGet, fmt.Sprintf("/cart/address/get/%d/", int(addressID)), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	a := newApp(t)
	a.user("ana", "secret123")
	admin := a.user("root", "secret123")
	require.NoError(t, a.db.Model(&admin).Update("is_admin", true).Error)

	b := a.browser()
	b.login("ana", "secret123")
	code, _ := b.json(http.MethodGet, "/admin/categories", nil)
	assert.Equal(t, http.StatusForbidden, code)

	b = a.browser()
	b.login("root", "secret123")
	code, body := b.json(http.MethodPost, "/admin/categories", url.Values{"name": {"Wall Tiles"}})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "wall-tiles", body["data"].(map[string]any)["slug"])

	code, body = b.json(http.MethodPost, "/admin/products", url.Values{
		"name": {"Subway Tile"}, "price": {"24.99"},
		"category_id": {fmt.Sprint(body["data"].(map[string]any)["id"])},
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Subway Tile", body["data"].(map[string]any)["name"])
}

func TestCatalogPages(t *testing.T) {
	a := newApp(t)
	a.product(10, "Premium Ceramic Floor Tile", "49.99")
	a.product(11, "Terracotta Tile", "84.99")
	b := a.browser()

	code, body := b.json(http.MethodGet, "/products/?sort=price", nil)
	require.Equal(t, http.StatusOK, code)
	products := body["products"].([]any)
	require.Len(t, products, 2)
	assert.Equal(t, "Premium Ceramic Floor Tile", products[0].(map[string]any)["name"])

	code, body = b.json(http.MethodGet, "/product/11/", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["related_products"].([]any), 1)
	assert.Equal(t, false, body["in_wishlist"])

	w := b.do(http.MethodGet, "/product/999/", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
