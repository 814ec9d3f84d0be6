// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/validation"
	"gorm.io/gorm"
)

const msgAddressNotFound = "Address not found"

// AddressService handles address business logic
type AddressService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, logger *logrus.Logger) *AddressService {
	return &AddressService{
		db:     db,
		logger: logger,
	}
}

// AddressRequest is the delivery address form. Address2 is optional.
type AddressRequest struct {
	FirstName  string `form:"first_name" json:"first_name" validate:"required,max=100"`
	LastName   string `form:"last_name" json:"last_name" validate:"required,max=100"`
	Email      string `form:"email" json:"email" validate:"required,email,max=255"`
	Address    string `form:"address" json:"address" validate:"required,max=255"`
	Address2   string `form:"address2" json:"address2" validate:"max=255"`
	City       string `form:"city" json:"city" validate:"required,max=100"`
	State      string `form:"state" json:"state" validate:"required,max=100"`
	PostalCode string `form:"postal_code" json:"postal_code" validate:"required,max=20"`
	Country    string `form:"country" json:"country" validate:"required,max=100"`
	Phone      string `form:"phone" json:"phone" validate:"required,max=20"`
}

func (r *AddressRequest) normalize() {
	for _, f := range []*string{
		&r.FirstName, &r.LastName, &r.Email, &r.Address, &r.Address2,
		&r.City, &r.State, &r.PostalCode, &r.Country, &r.Phone,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Validate trims and checks the form.
func (r *AddressRequest) Validate() error {
	r.normalize()
	return validation.Struct(r)
}

// ToAddress builds an unsaved address for userID.
func (r *AddressRequest) ToAddress(userID uint) Address {
	return Address{
		UserID:     userID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Address:    r.Address,
		Address2:   r.Address2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
	}
}

// GetUserAddresses retrieves all addresses for a user, newest first
func (s *AddressService) GetUserAddresses(ctx context.Context, userID uint) ([]Address, error) {
	var addresses []Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress retrieves a specific address owned by the user
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID uint) (*Address, error) {
	var address Address
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound(msgAddressNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", err)
	}
	return &address, nil
}

// SaveAddress stores a new address unless the user already has an identical
// one, in which case the existing row is returned with created false.
func (s *AddressService) SaveAddress(ctx context.Context, userID uint, req *AddressRequest) (*Address, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	candidate := req.ToAddress(userID)

	var (
		saved   Address
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Address
		err := tx.Where(map[string]interface{}{
			"user_id":     userID,
			"first_name":  candidate.FirstName,
			"last_name":   candidate.LastName,
			"address":     candidate.Address,
			"address2":    candidate.Address2,
			"city":        candidate.City,
			"state":       candidate.State,
			"postal_code": candidate.PostalCode,
			"country":     candidate.Country,
			"phone":       candidate.Phone,
		}).Order("id ASC").First(&existing).Error
		if err == nil {
			saved = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up address: %w", err)
		}

		if err := tx.Create(&candidate).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		saved = candidate
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "address_id": saved.ID}).Info("Address saved")
	}
	return &saved, created, nil
}

// UpdateAddress overwrites the submitted fields. Blank fields keep their
// stored value, except Address2 which is always replaced.
func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID uint, req *AddressRequest) (*Address, error) {
	req.normalize()
	if req.Email != "" {
		if err := validation.Struct(struct {
			Email string `form:"email" validate:"email"`
		}{req.Email}); err != nil {
			return nil, err
		}
	}

	address, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	keep := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	keep(&address.FirstName, req.FirstName)
	keep(&address.LastName, req.LastName)
	keep(&address.Email, req.Email)
	keep(&address.Address, req.Address)
	keep(&address.City, req.City)
	keep(&address.State, req.State)
	keep(&address.PostalCode, req.PostalCode)
	keep(&address.Country, req.Country)
	keep(&address.Phone, req.Phone)
	address.Address2 = req.Address2

	if err := s.db.WithContext(ctx).Save(address).Error; err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return address, nil
}

// DeleteAddress deletes an address owned by the user
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).Delete(&Address{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete address: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.NotFound(msgAddressNotFound)
	}
	return nil
}
