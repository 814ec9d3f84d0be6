package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/session"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/testutil"
)

type fixture struct {
	svc       *Service
	carts     *cart.Service
	addresses *user.AddressService
	user      user.User
	product   product.Product
	sid       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t,
		&user.User{}, &user.Address{},
		&product.Category{}, &product.Product{},
		&cart.Cart{}, &cart.CartItem{},
	)
	_, rdb := testutil.NewRedis(t)
	log := logger.Discard()

	u := user.User{Username: "gil", Email: "gil@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	cat := product.Category{Name: "Mosaic", Slug: "mosaic"}
	require.NoError(t, db.Create(&cat).Error)
	p := product.Product{Name: "Hex Mosaic", Price: decimal.RequireFromString("35.50"), CategoryID: cat.ID}
	require.NoError(t, db.Omit("Category").Create(&p).Error)

	carts := cart.NewService(db, nil, log)
	addresses := user.NewAddressService(db, log)
	svc := NewService(session.NewStore(rdb, testutil.Config().Session), carts, addresses, log)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	return &fixture{svc: svc, carts: carts, addresses: addresses, user: u, product: p, sid: session.NewID()}
}

func addressForm() *user.AddressRequest {
	return &user.AddressRequest{
		FirstName:  "Gil",
		LastName:   "Costa",
		Email:      "gil@example.com",
		Address:    "9 Grout St",
		City:       "Braga",
		State:      "Minho",
		PostalCode: "4700",
		Country:    "PT",
		Phone:      "5559999",
	}
}

func cardForm() *PaymentRequest {
	return &PaymentRequest{
		Method:     MethodCard,
		Cardholder: "Gil Costa",
		CardNumber: "4111 1111 1111 1111",
		Expiry:     "09/29",
		CVV:        "123",
	}
}

func TestStageNewAddressSavesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.StageNewAddress(ctx, f.user.ID, f.sid, addressForm(), true)
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.NotZero(t, first.AddressID)

	second, err := f.svc.StageNewAddress(ctx, f.user.ID, f.sid, addressForm(), true)
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.AddressID, second.AddressID)

	stage, err := f.svc.Stage(ctx, f.sid)
	require.NoError(t, err)
	require.NotNil(t, stage.Address)
	assert.Equal(t, "Braga", stage.Address.City)
}

func TestStageNewAddressWithoutSaving(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	staged, err := f.svc.StageNewAddress(ctx, f.user.ID, f.sid, addressForm(), false)
	require.NoError(t, err)
	assert.Zero(t, staged.AddressID)

	saved, err := f.addresses.GetUserAddresses(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)

	form := addressForm()
	form.Phone = ""
	_, err = f.svc.StageNewAddress(ctx, f.user.ID, f.sid, form, false)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSelectAddressSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	addr, _, err := f.addresses.SaveAddress(ctx, f.user.ID, addressForm())
	require.NoError(t, err)

	delivery, err := f.svc.SelectAddress(ctx, f.user.ID, f.sid, addr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gil Costa", delivery.FullName())

	_, err = f.addresses.UpdateAddress(ctx, f.user.ID, addr.ID, &user.AddressRequest{City: "Faro"})
	require.NoError(t, err)

	stage, err := f.svc.Stage(ctx, f.sid)
	require.NoError(t, err)
	assert.Equal(t, "Braga", stage.Address.City)

	_, err = f.svc.SelectAddress(ctx, f.user.ID+1, f.sid, addr.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStagePaymentPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StagePayment(ctx, f.user.ID, f.sid, cardForm())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = f.svc.StageNewAddress(ctx, f.user.ID, f.sid, addressForm(), true)
	require.NoError(t, err)

	_, err = f.svc.StagePayment(ctx, f.user.ID, f.sid, cardForm())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStagePaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.StageNewAddress(ctx, f.user.ID, f.sid, addressForm(), true)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, f.user.ID, f.product.ID, 2)
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*PaymentRequest)
		msg    string
	}{
		{"no method", func(r *PaymentRequest) { r.Method = "" }, msgNoMethod},
		{"missing cvv", func(r *PaymentRequest) { r.CVV = "" }, msgCardDetails},
		{"short number", func(r *PaymentRequest) { r.CardNumber = "4111" }, ""},
		{"bad expiry", func(r *PaymentRequest) { r.Expiry = "2029-09" }, "Expiry must be in MM/YY format"},
		{"letters in cvv", func(r *PaymentRequest) { r.CVV = "12a" }, ""},
		{"decimal card number", func(r *PaymentRequest) { r.CardNumber = "4111111111111.11" }, "Invalid cardnumber"},
		{"signed card number", func(r *PaymentRequest) { r.CardNumber = "+41111111111111" }, "Invalid cardnumber"},
		{"negative cvv", func(r *PaymentRequest) { r.CVV = "-12" }, "Invalid cvv"},
		{"decimal cvv", func(r *PaymentRequest) { r.CVV = "1.2" }, "Invalid cvv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := cardForm()
			tc.mutate(req)
			_, err := f.svc.StagePayment(ctx, f.user.ID, f.sid, req)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			if tc.msg != "" {
				assert.Equal(t, tc.msg, pkgerrors.As(err).Message())
			}
		})
	}
}

func TestStagePaymentCapturesMasked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.StageNewAddress(ctx, f.user.ID, f.sid, addressForm(), true)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, f.user.ID, f.product.ID, 2)
	require.NoError(t, err)

	payment, err := f.svc.StagePayment(ctx, f.user.ID, f.sid, cardForm())
	require.NoError(t, err)
	assert.Equal(t, "1111", payment.CardLast4)
	assert.Equal(t, "**** **** **** 1111", payment.MaskedCard())

	summary, err := f.svc.Summary(ctx, f.user.ID, f.sid)
	require.NoError(t, err)
	require.NotNil(t, summary.Payment)
	assert.Equal(t, payment.OrderID, summary.Payment.OrderID)
	assert.True(t, summary.Cart.TotalPrice.Equal(decimal.RequireFromString("71.00")))

	raw, err := f.svc.sessions.Client().Get(ctx, f.svc.sessions.Key(f.sid, stageKey)).Result()
	require.NoError(t, err)
	assert.NotContains(t, raw, "4111111111111111")
	assert.NotContains(t, raw, "\"123\"")

	cod, err := f.svc.StagePayment(ctx, f.user.ID, f.sid, &PaymentRequest{Method: "cod"})
	require.NoError(t, err)
	assert.Empty(t, cod.CardLast4)
	assert.Equal(t, fmt.Sprintf("#ORD%d1700000000", f.user.ID), cod.OrderID)

	require.NoError(t, f.svc.Reset(ctx, f.sid))
	stage, err := f.svc.Stage(ctx, f.sid)
	require.NoError(t, err)
	assert.Nil(t, stage.Address)
}
