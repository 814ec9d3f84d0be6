// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/session"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/validation"
)

// stageKey names the session entry holding the checkout stage.
const stageKey = "checkout"

// Payment methods that carry card details.
const (
	MethodCard  = "card"
	MethodDebit = "debit"
)

const (
	msgNoAddress   = "Please provide a delivery address first"
	msgEmptyCart   = "Your cart is empty"
	msgNoMethod    = "Please select a payment method"
	msgCardDetails = "Please fill all card details"
)

// DeliveryAddress is a snapshot of an address taken at checkout. Later edits
// to the saved address do not affect it.
type DeliveryAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// FullName joins the recipient's names.
func (d *DeliveryAddress) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

func snapshot(a *user.Address) *DeliveryAddress {
	return &DeliveryAddress{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Address:    a.Address,
		Address2:   a.Address2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

// PaymentStage records a simulated capture. Only the last four card digits
// are kept.
type PaymentStage struct {
	Method     string    `json:"method"`
	Cardholder string    `json:"cardholder,omitempty"`
	CardLast4  string    `json:"card_last4,omitempty"`
	Expiry     string    `json:"expiry,omitempty"`
	OrderID    string    `json:"order_id"`
	CapturedAt time.Time `json:"captured_at"`
}

// MaskedCard renders the stored card digits for display.
func (p *PaymentStage) MaskedCard() string {
	if p.CardLast4 == "" {
		return ""
	}
	return "**** **** **** " + p.CardLast4
}

// Stage is the per-session checkout progress.
type Stage struct {
	Address *DeliveryAddress `json:"delivery_address,omitempty"`
	Payment *PaymentStage    `json:"payment,omitempty"`
}

// StagedAddress is the outcome of staging a new address.
type StagedAddress struct {
	Address   *DeliveryAddress
	AddressID uint
	IsNew     bool
}

// PaymentRequest is the payment form. CVV is checked and then discarded.
type PaymentRequest struct {
	Method     string `form:"payment_method" json:"payment_method"`
	Cardholder string `form:"cardholder" json:"cardholder"`
	CardNumber string `form:"cardnumber" json:"cardnumber"`
	Expiry     string `form:"expiry" json:"expiry"`
	CVV        string `form:"cvv" json:"cvv"`
}

type cardDetails struct {
	Cardholder string `form:"cardholder" validate:"required,max=100"`
	CardNumber string `form:"cardnumber" validate:"required,number,min=12,max=19"`
	Expiry     string `form:"expiry" validate:"required,card_expiry"`
	CVV        string `form:"cvv" validate:"required,number,min=3,max=4"`
}

// Summary is everything the address, payment and receipt pages render.
type Summary struct {
	Cart    *cart.View
	Address *DeliveryAddress
	Payment *PaymentStage
}

// Service stages delivery and payment details for an authenticated checkout
type Service struct {
	sessions  *session.Store
	carts     *cart.Service
	addresses *user.AddressService
	logger    *logrus.Logger
	now       func() time.Time
}

// NewService creates a new checkout service
func NewService(sessions *session.Store, carts *cart.Service, addresses *user.AddressService, logger *logrus.Logger) *Service {
	return &Service{
		sessions:  sessions,
		carts:     carts,
		addresses: addresses,
		logger:    logger,
		now:       time.Now,
	}
}

// RequireCart returns the user's cart view, or NotFound when there is
// nothing to check out.
func (s *Service) RequireCart(ctx context.Context, userID uint) (*cart.View, error) {
	view, err := s.carts.View(ctx, userID)
	if err != nil {
		return nil, err
	}
	if view.IsEmpty() {
		return nil, pkgerrors.NotFound(msgEmptyCart)
	}
	return view, nil
}

// Stage loads the session's checkout progress. A fresh session has an empty
// stage.
func (s *Service) Stage(ctx context.Context, sessionID string) (*Stage, error) {
	var stage Stage
	if _, err := s.sessions.GetJSON(ctx, sessionID, stageKey, &stage); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load checkout")
	}
	return &stage, nil
}

func (s *Service) save(ctx context.Context, sessionID string, stage *Stage) error {
	if err := s.sessions.SetJSON(ctx, sessionID, stageKey, stage); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to save checkout")
	}
	return nil
}

// SelectAddress stages a copy of one of the user's saved addresses.
func (s *Service) SelectAddress(ctx context.Context, userID uint, sessionID string, addressID uint) (*DeliveryAddress, error) {
	addr, err := s.addresses.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	delivery := snapshot(addr)
	if err := s.save(ctx, sessionID, &Stage{Address: delivery}); err != nil {
		return nil, err
	}
	return delivery, nil
}

// StageNewAddress validates a submitted address and stages it. With save set
// it is also stored on the account, reusing an identical saved address.
func (s *Service) StageNewAddress(ctx context.Context, userID uint, sessionID string, req *user.AddressRequest, save bool) (*StagedAddress, error) {
	staged := &StagedAddress{}

	if save {
		addr, created, err := s.addresses.SaveAddress(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		staged.AddressID = addr.ID
		staged.IsNew = created
		staged.Address = snapshot(addr)
		// The submitted contact email wins over a reused row's.
		staged.Address.Email = req.Email
	} else {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		a := req.ToAddress(userID)
		staged.Address = snapshot(&a)
	}

	if err := s.save(ctx, sessionID, &Stage{Address: staged.Address}); err != nil {
		return nil, err
	}
	return staged, nil
}

// StagePayment simulates a capture against the staged address and the
// user's cart, then records the masked result in the session.
func (s *Service) StagePayment(ctx context.Context, userID uint, sessionID string, req *PaymentRequest) (*PaymentStage, error) {
	stage, err := s.Stage(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if stage.Address == nil {
		return nil, pkgerrors.Validation(msgNoAddress)
	}
	if _, err := s.RequireCart(ctx, userID); err != nil {
		return nil, err
	}

	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		return nil, pkgerrors.Validation(msgNoMethod)
	}

	now := s.now().UTC()
	payment := &PaymentStage{
		Method:     method,
		OrderID:    fmt.Sprintf("#ORD%d%d", userID, now.Unix()),
		CapturedAt: now,
	}

	if method == MethodCard || method == MethodDebit {
		card := cardDetails{
			Cardholder: strings.TrimSpace(req.Cardholder),
			CardNumber: digitsOnly(req.CardNumber),
			Expiry:     strings.TrimSpace(req.Expiry),
			CVV:        strings.TrimSpace(req.CVV),
		}
		if card.Cardholder == "" || card.CardNumber == "" || card.Expiry == "" || card.CVV == "" {
			return nil, pkgerrors.Validation(msgCardDetails)
		}
		if err := validation.Struct(card); err != nil {
			return nil, err
		}
		payment.Cardholder = card.Cardholder
		payment.CardLast4 = card.CardNumber[len(card.CardNumber)-4:]
		payment.Expiry = card.Expiry
	}

	stage.Payment = payment
	if err := s.save(ctx, sessionID, stage); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"order_id": payment.OrderID,
		"method":   payment.Method,
	}).Info("Payment captured")
	return payment, nil
}

// Summary gathers the cart and staged details for rendering.
func (s *Service) Summary(ctx context.Context, userID uint, sessionID string) (*Summary, error) {
	view, err := s.carts.View(ctx, userID)
	if err != nil {
		return nil, err
	}
	stage, err := s.Stage(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Summary{Cart: view, Address: stage.Address, Payment: stage.Payment}, nil
}

// Reset forgets the session's checkout progress.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID, stageKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to reset checkout")
	}
	return nil
}

// digitsOnly strips the spaces and dashes shoppers type into card numbers.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
