package ports

import (
	"context"

	"github.com/anvaya/identity-service/internal/core/domain"
)

// IdentityStore is the user-store capability consumed by the credential
// service and the access guard. Implementations translate persistence
// failures into domain errors: a missing identity is
// domain.ErrIdentityNotFound, a duplicate email is domain.ErrEmailTaken.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)

	// SetRefreshTokenHash stores the hash of the currently valid refresh
	// token. An empty hash clears it, revoking every outstanding refresh
	// token for the identity. The update must be atomic per document so
	// concurrent logins race harmlessly (last writer wins).
	SetRefreshTokenHash(ctx context.Context, id, hash string) error
}
