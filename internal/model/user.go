package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a storefront account. Addresses, wishlist and cart are stored
// embedded in the user document.
type User struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	Email      string      `json:"email" db:"email"`
	Phone      string      `json:"phone,omitempty" db:"phone"`
	Avatar     string      `json:"avatar,omitempty" db:"avatar"`
	IsAdmin    bool        `json:"isAdmin" db:"is_admin"`
	IsVerified bool        `json:"isVerified" db:"is_verified"`
	IsActive   bool        `json:"isActive" db:"is_active"`
	LastLogin  *time.Time  `json:"lastLogin,omitempty" db:"last_login"`
	Addresses  []Address   `json:"addresses" db:"addresses"`
	Wishlist   []uuid.UUID `json:"wishlist" db:"wishlist"`
	Cart       []CartItem  `json:"cart" db:"cart"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time   `json:"updatedAt" db:"updated_at"`

	PasswordHash        string     `json:"-" db:"password_hash"`
	VerificationToken   *string    `json:"-" db:"email_verification_token"`
	VerificationExpires *time.Time `json:"-" db:"email_verification_expire"`
	ResetToken          *string    `json:"-" db:"reset_password_token"`
	ResetExpires        *time.Time `json:"-" db:"reset_password_expire"`
	LoginAttempts       int        `json:"-" db:"login_attempts"`
	LockUntil           *time.Time `json:"-" db:"lock_until"`
}

// Address is a saved shipping address.
type Address struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name" validate:"required"`
	Address    string    `json:"address" validate:"required"`
	City       string    `json:"city" validate:"required"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postalCode" validate:"required"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone" validate:"required"`
	IsDefault  bool      `json:"isDefault"`
}

// DefaultCountry is used when an address omits the country.
const DefaultCountry = "Pakistan"

// IsLocked reports whether the account is inside a lockout window.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RecordFailedLogin counts a failed password attempt. An expired lock is
// cleared and counting restarts at one; otherwise the counter grows and the
// account is locked for lockFor once it reaches maxAttempts.
func (u *User) RecordFailedLogin(now time.Time, maxAttempts int, lockFor time.Duration) {
	if u.LockUntil != nil && !u.LockUntil.After(now) {
		u.LoginAttempts = 1
		u.LockUntil = nil
		return
	}

	u.LoginAttempts++
	if u.LoginAttempts >= maxAttempts && !u.IsLocked(now) {
		until := now.Add(lockFor)
		u.LockUntil = &until
	}
}

// RecordSuccessfulLogin resets the failure counter and stamps the login time.
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &now
}

// Normalise replaces nil embedded collections with empty ones so they are
// stored as empty JSON arrays.
func (u *User) Normalise() {
	if u.Addresses == nil {
		u.Addresses = []Address{}
	}
	if u.Wishlist == nil {
		u.Wishlist = []uuid.UUID{}
	}
	if u.Cart == nil {
		u.Cart = []CartItem{}
	}
}

// SetDefaultAddress marks the address with id as the only default.
func SetDefaultAddress(addresses []Address, id uuid.UUID) {
	for i := range addresses {
		addresses[i].IsDefault = addresses[i].ID == id
	}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsAdmin    bool      `json:"isAdmin"`
	IsVerified bool      `json:"isVerified"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164|numeric"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries optional profile changes; empty fields are kept.
type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// UpdatePasswordRequest changes the password of the signed-in user.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AdminUpdateUserRequest is used by administrators to edit an account.
type AdminUpdateUserRequest struct {
	Name    string `json:"name" validate:"omitempty,min=2,max=50"`
	Email   string `json:"email" validate:"omitempty,email"`
	IsAdmin *bool  `json:"isAdmin"`
}

// UserPage is a page of users for the admin listing.
type UserPage struct {
	Users []User `json:"users"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
	Total int    `json:"total"`
}

// EmailRequest carries a single email address, as for forgot-password and
// availability checks.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest sets a new password with a reset token.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}
