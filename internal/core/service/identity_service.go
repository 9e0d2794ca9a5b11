package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/anvaya/identity-service/internal/core/domain"
	"github.com/anvaya/identity-service/internal/core/ports"
	"github.com/anvaya/identity-service/pkg/hash"
	"github.com/anvaya/identity-service/pkg/token"
)

// IdentityService implements registration, login, token refresh and
// profile lookup against an injected identity store.
type IdentityService struct {
	store    ports.IdentityStore
	hasher   *hash.Hasher
	codec    *token.Codec
	throttle ports.LoginThrottle
	audit    ports.AuditRecorder
	logger   zerolog.Logger
}

// NewIdentityService wires the credential service. throttle and audit
// are optional; nil disables the corresponding behaviour.
func NewIdentityService(
	store ports.IdentityStore,
	hasher *hash.Hasher,
	codec *token.Codec,
	throttle ports.LoginThrottle,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		throttle: throttle,
		audit:    audit,
		logger:   logger,
	}
}

// Register creates a new identity. The admin role cannot be
// self-registered; duplicate emails are rejected.
func (s *IdentityService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Identity, error) {
	if input.Role == domain.RoleAdmin {
		return nil, domain.ErrAdminSignupBlocked
	}

	if _, err := s.store.FindByEmail(ctx, input.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	identity := &domain.Identity{
		Email:        input.Email,
		PasswordHash: hashed,
		Role:         input.Role,
		Active:       true,
		Phone:        input.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.store.Create(ctx, identity)
	if err != nil {
		// A concurrent registration can still hit the unique index.
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	s.record(ports.AuditRegister, created.ID, created.Email)
	return created.Sanitized(), nil
}

// Login verifies credentials and mints a fresh token pair. The stored
// refresh-token hash is overwritten on every success, invalidating any
// previously issued refresh token for the identity.
//
// Unknown email and wrong password collapse into the same
// ErrInvalidCredentials so responses cannot be used for account
// enumeration.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.Identity, error) {
	if s.throttle != nil {
		if err := s.throttle.Allow(ctx, email); err != nil {
			if errors.Is(err, domain.ErrTooManyAttempts) {
				return nil, nil, domain.ErrTooManyAttempts
			}
			// A throttle outage must not lock every account out.
			s.logger.Warn().Err(err).Msg("login throttle unavailable")
		}
	}

	identity, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			s.failLogin(ctx, email)
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find identity: %w", err)
	}

	if !s.hasher.Verify(password, identity.PasswordHash) {
		s.failLogin(ctx, email)
		return nil, nil, domain.ErrInvalidCredentials
	}

	access, err := s.codec.SignAccess(identity.ID, identity.Email, string(identity.Role))
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.codec.SignRefresh(identity.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh token: %w", err)
	}

	refreshHash, err := s.hasher.Hash(hash.Fingerprint(refresh))
	if err != nil {
		return nil, nil, fmt.Errorf("hash refresh token: %w", err)
	}
	if err := s.store.SetRefreshTokenHash(ctx, identity.ID, refreshHash); err != nil {
		return nil, nil, fmt.Errorf("store refresh token hash: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.logger.Warn().Err(err).Msg("login throttle reset failed")
		}
	}

	s.record(ports.AuditLoginSuccess, identity.ID, identity.Email)
	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, identity.Sanitized(), nil
}

// Refresh mints a new access token for an identity already validated by
// the guard's refresh path. The stored refresh-token hash is untouched.
func (s *IdentityService) Refresh(ctx context.Context, identity *domain.Identity) (string, error) {
	access, err := s.codec.SignAccess(identity.ID, identity.Email, string(identity.Role))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	s.record(ports.AuditRefresh, identity.ID, identity.Email)
	return access, nil
}

// Profile returns the identity with its hashes stripped.
func (s *IdentityService) Profile(ctx context.Context, id string) (*domain.Identity, error) {
	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return identity.Sanitized(), nil
}

// Logout clears the stored refresh-token hash, revoking every
// outstanding refresh token for the identity even before expiry.
func (s *IdentityService) Logout(ctx context.Context, id string) error {
	if err := s.store.SetRefreshTokenHash(ctx, id, ""); err != nil {
		return fmt.Errorf("clear refresh token hash: %w", err)
	}

	s.record(ports.AuditLogout, id, "")
	return nil
}

func (s *IdentityService) failLogin(ctx context.Context, email string) {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			s.logger.Warn().Err(err).Msg("login throttle record failed")
		}
	}
	s.record(ports.AuditLoginFailure, "", email)
}

func (s *IdentityService) record(action, identityID, email string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ports.AuditEvent{
		Action:     action,
		IdentityID: identityID,
		Email:      email,
		At:         time.Now().UTC(),
	})
}
