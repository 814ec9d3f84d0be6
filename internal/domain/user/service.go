// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/auth"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/validation"
	"gorm.io/gorm"
)

const (
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgEmailRegistered    = "Email already registered. Please login or use a different email."
	dateLayout            = "2006-01-02"
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	logger          *logrus.Logger
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
		logger:          logger,
	}
}

// SignupRequest represents user registration data
type SignupRequest struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password1" json:"password1"`
	ConfirmPassword string `form:"password2" json:"password2"`
}

// LoginRequest represents user login data. Login is a username or an email.
type LoginRequest struct {
	Login      string `form:"username" json:"username"`
	Password   string `form:"password" json:"password"`
	RememberMe string `form:"remember_me" json:"remember_me"`
}

// Remember reports whether the remember-me box was ticked.
func (r *LoginRequest) Remember() bool {
	switch strings.ToLower(strings.TrimSpace(r.RememberMe)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// ProfileRequest represents the editable profile fields
type ProfileRequest struct {
	FirstName   string `form:"first_name" json:"first_name" validate:"max=100"`
	LastName    string `form:"last_name" json:"last_name" validate:"max=100"`
	Email       string `form:"email" json:"email" validate:"omitempty,email,max=255"`
	DateOfBirth string `form:"date_of_birth" json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `form:"gender" json:"gender" validate:"omitempty,oneof=M F O"`
	Phone       string `form:"phone_number" json:"phone_number" validate:"max=20"`
	CountryCode string `form:"country_code" json:"country_code" validate:"max=5"`
	Bio         string `form:"bio" json:"bio"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RememberMe   bool   `json:"remember_me"`
}

// Signup creates an account and signs the new user in. The username is
// derived from the local part of the email.
func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.FirstName == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return nil, pkgerrors.Validation("All fields are required.")
	}
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.Validation("Passwords do not match.")
	}
	if err := s.passwordManager.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	if !strings.Contains(req.Email, "@") {
		return nil, pkgerrors.Validation("Please enter a valid email address")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return pkgerrors.Validation(msgEmailRegistered)
		}

		username, err := uniqueUsername(tx, req.Email)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = User{
			Username:    username,
			Email:       req.Email,
			Password:    hashedPassword,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			IsActive:    true,
			LastLoginAt: &now,
		}
		if err := tx.Create(&user).Error; err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "Username already taken, please try again.")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User signed up")
	return s.IssueTokens(&user, false)
}

// Login authenticates by username or email. An email login resolves to the
// oldest account holding that address.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, pkgerrors.Validation("Please enter both email and password.")
	}

	db := s.db.WithContext(ctx).Where("is_active = ?", true)
	if strings.Contains(login, "@") {
		db = db.Where("email = ?", strings.ToLower(login))
	} else {
		db = db.Where("username = ?", login)
	}

	var user User
	if err := db.Order("id ASC").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidCredentials)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	user.LastLoginAt = &now

	return s.IssueTokens(&user, req.Remember())
}

// IssueTokens mints an access and refresh token pair for user.
func (s *Service) IssueTokens(user *User, rememberMe bool) (*AuthResponse, error) {
	id := auth.Identity{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}

	accessToken, err := s.jwtManager.GenerateAccessToken(id, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	user.Password = ""

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.AccessTTL(rememberMe).Seconds()),
		RememberMe:   rememberMe,
	}, nil
}

// RefreshToken generates new tokens using refresh token
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
	}

	user, err := s.GetProfile(ctx, claims.UserID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found or inactive")
		}
		return nil, err
	}

	return s.IssueTokens(user, false)
}

// GetProfile gets user profile by ID
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user.Password = ""
	return &user, nil
}

// UpdateProfile applies the submitted profile form. Blank fields overwrite
// stored values, except the country code which falls back to the default.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *ProfileRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && req.Email != user.Email {
		var count int64
		if err := s.db.WithContext(ctx).Model(&User{}).
			Where("email = ? AND id <> ?", req.Email, userID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return nil, pkgerrors.Validation(msgEmailRegistered)
		}
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			return nil, pkgerrors.Validation("Invalid date of birth")
		}
		dob = &parsed
	}

	countryCode := strings.TrimSpace(req.CountryCode)
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	updates := map[string]interface{}{
		"first_name":    strings.TrimSpace(req.FirstName),
		"last_name":     strings.TrimSpace(req.LastName),
		"date_of_birth": dob,
		"gender":        req.Gender,
		"phone":         strings.TrimSpace(req.Phone),
		"country_code":  countryCode,
		"bio":           req.Bio,
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}

	if err := s.db.WithContext(ctx).Model(&User{ID: userID}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// SetAvatar stores the public URL of the user's profile picture.
func (s *Service) SetAvatar(ctx context.Context, userID uint, url string) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("avatar", url)
	if result.Error != nil {
		return fmt.Errorf("failed to update avatar: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.NotFound("User not found")
	}
	return nil
}

// CleanupDuplicateEmails deletes every account that shares a non-empty
// email with an older account and reports how many were removed.
func (s *Service) CleanupDuplicateEmails(ctx context.Context) (int, error) {
	var emails []string
	err := s.db.WithContext(ctx).Model(&User{}).
		Select("email").
		Where("email <> ''").
		Group("email").
		Having("COUNT(*) > 1").
		Pluck("email", &emails).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find duplicate emails: %w", err)
	}

	removed := 0
	for _, email := range emails {
		var ids []uint
		if err := s.db.WithContext(ctx).Model(&User{}).
			Where("email = ?", email).
			Order("created_at ASC, id ASC").
			Pluck("id", &ids).Error; err != nil {
			return removed, fmt.Errorf("failed to list accounts for %s: %w", email, err)
		}
		if len(ids) < 2 {
			continue
		}

		doomed := ids[1:]
		if err := s.db.WithContext(ctx).Where("id IN ?", doomed).Delete(&User{}).Error; err != nil {
			return removed, fmt.Errorf("failed to delete duplicates for %s: %w", email, err)
		}
		removed += len(doomed)

		s.logger.WithFields(logrus.Fields{
			"email":   email,
			"kept":    ids[0],
			"removed": len(doomed),
		}).Info("Removed duplicate accounts")
	}

	return removed, nil
}

// uniqueUsername picks the email's local part, suffixing a counter until
// the name is free.
func uniqueUsername(tx *gorm.DB, email string) (string, error) {
	base := email
	if at := strings.Index(email, "@"); at > 0 {
		base = email[:at]
	}
	if len(base) > 140 {
		base = base[:140]
	}

	candidate := base
	for counter := 1; ; counter++ {
		var count int64
		if err := tx.Model(&User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, counter)
	}
}
