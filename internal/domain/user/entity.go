// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Gender codes accepted on the profile.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

// DefaultCountryCode is used when a profile has no dialling prefix yet.
const DefaultCountryCode = "+1"

// User is an account holder. Email is indexed but not unique at the
// database level; signup rejects duplicates and the seed tool cleans up
// legacy ones.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"uniqueIndex;not null;size:150" json:"username"`
	Email       string     `gorm:"index;not null;size:255" json:"email"`
	Password    string     `gorm:"not null;size:255" json:"-"`
	FirstName   string     `gorm:"size:100" json:"first_name"`
	LastName    string     `gorm:"size:100" json:"last_name"`
	Phone       string     `gorm:"size:20" json:"phone_number"`
	CountryCode string     `gorm:"size:5;default:'+1'" json:"country_code"`
	Gender      string     `gorm:"size:1" json:"gender"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Avatar      string     `gorm:"size:500" json:"profile_picture"`
	Bio         string     `gorm:"type:text" json:"bio"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	IsAdmin     bool       `gorm:"default:false" json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"addresses,omitempty"`
}

// Address is a saved delivery address.
type Address struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	FirstName  string    `gorm:"size:100;not null" json:"first_name"`
	LastName   string    `gorm:"size:100;not null" json:"last_name"`
	Email      string    `gorm:"size:255;not null" json:"email"`
	Address    string    `gorm:"size:255;not null" json:"address"`
	Address2   string    `gorm:"size:255" json:"address2"`
	City       string    `gorm:"size:100;not null" json:"city"`
	State      string    `gorm:"size:100;not null" json:"state"`
	PostalCode string    `gorm:"size:20;not null" json:"postal_code"`
	Country    string    `gorm:"size:100;not null" json:"country"`
	Phone      string    `gorm:"size:20;not null" json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Address
func (Address) TableName() string {
	return "addresses"
}

// BeforeCreate normalises the email and fills profile defaults.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.CountryCode == "" {
		u.CountryCode = DefaultCountryCode
	}
	return nil
}

// GetFullName returns the user's full name
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// GetDisplayName returns the full name, falling back to the username.
func (u *User) GetDisplayName() string {
	if fullName := u.GetFullName(); fullName != "" {
		return fullName
	}
	return u.Username
}

// FullPhone joins the dialling prefix and number.
func (u *User) FullPhone() string {
	if u.Phone == "" {
		return ""
	}
	return u.CountryCode + " " + u.Phone
}

func (a *Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// SameAs reports whether two addresses describe the same destination.
// The contact email is not part of the comparison.
func (a *Address) SameAs(o *Address) bool {
	return a.FirstName == o.FirstName &&
		a.LastName == o.LastName &&
		a.Address == o.Address &&
		a.Address2 == o.Address2 &&
		a.City == o.City &&
		a.State == o.State &&
		a.PostalCode == o.PostalCode &&
		a.Country == o.Country &&
		a.Phone == o.Phone
}
