package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/product"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/testutil"
)

func summary() *checkout.Summary {
	p := product.Product{ID: 3, Name: "Terracotta <Square>", Price: decimal.RequireFromString("12.50")}
	return &checkout.Summary{
		Cart: &cart.View{
			Persistent: true,
			Lines:      []cart.Line{{ProductID: 3, Product: p, Quantity: 4, TotalPrice: decimal.RequireFromString("50.00")}},
			TotalPrice: decimal.RequireFromString("50.00"),
			TotalItems: 4,
		},
		Address: &checkout.DeliveryAddress{FirstName: "Ana", LastName: "Silva", Address: "1 Tile Way", City: "Porto", State: "Norte", PostalCode: "4000", Country: "PT", Phone: "555", Email: "ana@example.com"},
		Payment: &checkout.PaymentStage{Method: "card", CardLast4: "4242", OrderID: "#ORD11700000000", CapturedAt: time.Unix(1700000000, 0)},
	}
}

func TestRenderReceiptHTML(t *testing.T) {
	svc := NewService(testutil.Config().Receipt)

	html, err := svc.RenderReceiptHTML(svc.NewReceiptData("Ana Silva", summary()))
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "#ORD11700000000")
	assert.Contains(t, out, "Tile Store")
	assert.Contains(t, out, "**** **** **** 4242")
	assert.Contains(t, out, "$12.50")
	assert.Contains(t, out, "$50.00")
	assert.Contains(t, out, "Terracotta &lt;Square&gt;")
}

func TestRenderReceiptRequiresPayment(t *testing.T) {
	svc := NewService(testutil.Config().Receipt)
	s := summary()
	s.Payment = nil

	_, err := svc.RenderReceiptHTML(svc.NewReceiptData("Ana", s))
	assert.True(t, pkgerrors.IsNotFound(err))
}
