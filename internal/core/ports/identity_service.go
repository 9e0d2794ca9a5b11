package ports

import (
	"context"

	"github.com/anvaya/identity-service/internal/core/domain"
)

// RegisterInput carries the self-service registration fields.
type RegisterInput struct {
	Email    string
	Password string
	Role     domain.Role
	Phone    string
}

// TokenPair is the credential pair minted on a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type IdentityService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.Identity, error)

	// Refresh mints a new access token for an identity already validated
	// by the guard's refresh path. The refresh token itself is not
	// rotated on use.
	Refresh(ctx context.Context, identity *domain.Identity) (string, error)

	Profile(ctx context.Context, id string) (*domain.Identity, error)

	// Logout clears the stored refresh-token hash, revoking every
	// outstanding refresh token for the identity.
	Logout(ctx context.Context, id string) error
}
