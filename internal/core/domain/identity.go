package domain

import (
	"errors"
	"time"
)

// Role enumerates the account categories recognised by the marketplace.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleVendor    Role = "vendor"
	RoleOrganizer Role = "organizer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleOrganizer:
		return true
	}
	return false
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAdminSignupBlocked = errors.New("admin registration is not allowed")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// Identity models an authenticated actor in the marketplace.
//
// PasswordHash and RefreshTokenHash are owned by the identity store and
// never serialise to JSON; Sanitized strips them before an identity
// crosses the service boundary.
type Identity struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	Active           bool      `json:"active"`
	Phone            string    `json:"phone,omitempty"`
	RefreshTokenHash string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Sanitized returns a copy safe to hand outside the store boundary.
func (i *Identity) Sanitized() *Identity {
	if i == nil {
		return nil
	}
	clone := *i
	clone.PasswordHash = ""
	clone.RefreshTokenHash = ""
	return &clone
}
