// internal/pkg/auth/password.go
package auth

import (
	"fmt"

	"github.com/your-org/storefront/internal/config"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores bytes past 72
)

// PasswordManager handles password operations
type PasswordManager struct {
	config *config.Config
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{
		config: cfg,
	}
}

// HashPassword validates and hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	cost := p.config.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword checks the signup length rules.
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "Password must be at least %d characters long.", MinPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "Password must be no more than %d characters long.", maxPasswordLength)
	}
	return nil
}
