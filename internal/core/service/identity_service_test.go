package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/anvaya/identity-service/internal/core/domain"
	"github.com/anvaya/identity-service/internal/core/ports"
	"github.com/anvaya/identity-service/pkg/hash"
	"github.com/anvaya/identity-service/pkg/token"

	"github.com/rs/zerolog"
)

type stubIdentityStore struct {
	identities map[string]*domain.Identity // keyed by id
	nextID     int
}

func newStubIdentityStore() *stubIdentityStore {
	return &stubIdentityStore{identities: make(map[string]*domain.Identity)}
}

func cloneIdentity(i *domain.Identity) *domain.Identity {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

func (s *stubIdentityStore) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	for _, i := range s.identities {
		if i.Email == email {
			return cloneIdentity(i), nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (s *stubIdentityStore) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	i, ok := s.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return cloneIdentity(i), nil
}

func (s *stubIdentityStore) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	for _, existing := range s.identities {
		if existing.Email == identity.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	s.nextID++
	copy := cloneIdentity(identity)
	copy.ID = "id-" + strconv.Itoa(s.nextID)
	s.identities[copy.ID] = cloneIdentity(copy)
	return cloneIdentity(copy), nil
}

func (s *stubIdentityStore) SetRefreshTokenHash(_ context.Context, id, hash string) error {
	i, ok := s.identities[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	i.RefreshTokenHash = hash
	return nil
}

type recordingAudit struct {
	events []ports.AuditEvent
}

func (r *recordingAudit) Record(event ports.AuditEvent) {
	r.events = append(r.events, event)
}

type blockingThrottle struct{}

func (blockingThrottle) Allow(context.Context, string) error         { return domain.ErrTooManyAttempts }
func (blockingThrottle) RecordFailure(context.Context, string) error { return nil }
func (blockingThrottle) Reset(context.Context, string) error         { return nil }

func newTestService(store ports.IdentityStore) *IdentityService {
	hasher := hash.New(bcrypt.MinCost)
	codec := token.NewCodec("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)
	return NewIdentityService(store, hasher, codec, nil, nil, zerolog.Nop())
}

func register(t *testing.T, svc *IdentityService, email, password string, role domain.Role) *domain.Identity {
	t.Helper()
	identity, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return identity
}

func TestIdentityService_Register_Success(t *testing.T) {
	store := newStubIdentityStore()
	svc := newTestService(store)

	identity := register(t, svc, "u1@example.com", "pw12345678", domain.RoleVendor)

	if identity.ID == "" {
		t.Fatalf("expected created identity to have an id")
	}
	if !identity.Active {
		t.Fatalf("expected new identity to be active")
	}
	if identity.PasswordHash != "" {
		t.Fatalf("expected returned identity to have no password hash")
	}

	stored := store.identities[identity.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "pw12345678" {
		t.Fatalf("expected password to be hashed at rest")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw12345678")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestIdentityService_Register_AdminBlocked(t *testing.T) {
	svc := newTestService(newStubIdentityStore())

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "root@example.com",
		Password: "pw12345678",
		Role:     domain.RoleAdmin,
	})
	if !errors.Is(err, domain.ErrAdminSignupBlocked) {
		t.Fatalf("expected ErrAdminSignupBlocked, got %v", err)
	}
}

func TestIdentityService_Register_DuplicateEmail(t *testing.T) {
	svc := newTestService(newStubIdentityStore())

	register(t, svc, "u1@example.com", "pw12345678", domain.RoleVendor)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "u1@example.com",
		Password: "different-password",
		Role:     domain.RoleOrganizer,
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestIdentityService_Login_Success(t *testing.T) {
	store := newStubIdentityStore()
	svc := newTestService(store)

	created := register(t, svc, "u1@example.com", "pw12345678", domain.RoleVendor)

	pair, identity, err := svc.Login(context.Background(), "u1@example.com", "pw12345678")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("expected distinct access and refresh tokens")
	}
	if identity.ID != created.ID {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.PasswordHash != "" || identity.RefreshTokenHash != "" {
		t.Fatalf("expected sanitized identity")
	}

	// The stored hash must match the refresh token just issued.
	hasher := hash.New(bcrypt.MinCost)
	stored := store.identities[created.ID]
	if stored.RefreshTokenHash == "" {
		t.Fatalf("expected refresh token hash to be stored")
	}
	if !hasher.Verify(hash.Fingerprint(pair.RefreshToken), stored.RefreshTokenHash) {
		t.Fatalf("stored hash does not match issued refresh token")
	}
}

func TestIdentityService_Login_TokensNotReused(t *testing.T) {
	svc := newTestService(newStubIdentityStore())
	register(t, svc, "u1@example.com", "pw12345678", domain.RoleVendor)

	first, _, err := svc.Login(context.Background(), "u1@example.com", "pw12345678")
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond) // JWT iat/exp have second precision
	second, _, err := svc.Login(context.Background(), "u1@example.com", "pw12345678")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if first.AccessToken == second.AccessToken || first.RefreshToken == second.RefreshToken {
		t.Fatalf("expected fresh tokens on every login")
	}
}

func TestIdentityService_Login_GenericUnauthorized(t *testing.T) {
	svc := newTestService(newStubIdentityStore())
	register(t, svc, "u1@example.com", "pw12345678", domain.RoleVendor)

	// Unknown email and wrong password must be indistinguishable.
	_, _, unknownErr := svc.Login(context.Background(), "ghost@example.com", "pw12345678")
	_, _, wrongErr := svc.Login(context.Background(), "u1@example.com", "bad-password")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongErr)
	}
}

func TestIdentityService_Login_RotatesRefreshHash(t *testing.T) {
	store := newStubIdentityStore()
	svc := newTestService(store)
	created := register(t, svc, "u1@example.com", "pw12345678", domain.RoleVendor)

	first, _, err := svc.Login(context.Background(), "u1@example.com", "pw12345678")
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond) // distinct iat so the tokens differ
	second, _, err := svc.Login(context.Background(), "u1@example.com", "pw12345678")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	hasher := hash.New(bcrypt.MinCost)
	stored := store.identities[created.ID]
	if hasher.Verify(hash.Fingerprint(first.RefreshToken), stored.RefreshTokenHash) {
		t.Fatalf("expected first refresh token to be invalidated by rotation")
	}
	if !hasher.Verify(hash.Fingerprint(second.RefreshToken), stored.RefreshTokenHash) {
		t.Fatalf("expected stored hash to match latest refresh token")
	}
}

func TestIdentityService_Login_Throttled(t *testing.T) {
	store := newStubIdentityStore()
	hasher := hash.New(bcrypt.MinCost)
	codec := token.NewCodec("access-secret", "refresh-secret", time.Hour, time.Hour)
	svc := NewIdentityService(store, hasher, codec, blockingThrottle{}, nil, zerolog.Nop())

	_, _, err := svc.Login(context.Background(), "u1@example.com", "pw12345678")
	if !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestIdentityService_Refresh_MintsNewAccessOnly(t *testing.T) {
	store := newStubIdentityStore()
	svc := newTestService(store)
	created := register(t, svc, "u1@example.com", "pw12345678", domain.RoleVendor)

	pair, identity, err := svc.Login(context.Background(), "u1@example.com", "pw12345678")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	hashBefore := store.identities[created.ID].RefreshTokenHash

	time.Sleep(1100 * time.Millisecond)
	access, err := svc.Refresh(context.Background(), identity)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if access == "" || access == pair.AccessToken {
		t.Fatalf("expected a fresh access token")
	}
	if store.identities[created.ID].RefreshTokenHash != hashBefore {
		t.Fatalf("refresh must not rotate the stored refresh token hash")
	}
}

func TestIdentityService_Profile(t *testing.T) {
	svc := newTestService(newStubIdentityStore())
	created := register(t, svc, "u1@example.com", "pw12345678", domain.RoleOrganizer)

	profile, err := svc.Profile(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.Email != "u1@example.com" || profile.Role != domain.RoleOrganizer {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.PasswordHash != "" || profile.RefreshTokenHash != "" {
		t.Fatalf("expected profile to carry no hashes")
	}

	if _, err := svc.Profile(context.Background(), "missing"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestIdentityService_Logout_ClearsStoredHash(t *testing.T) {
	store := newStubIdentityStore()
	svc := newTestService(store)
	created := register(t, svc, "u1@example.com", "pw12345678", domain.RoleVendor)

	if _, _, err := svc.Login(context.Background(), "u1@example.com", "pw12345678"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if store.identities[created.ID].RefreshTokenHash == "" {
		t.Fatalf("expected stored hash after login")
	}

	if err := svc.Logout(context.Background(), created.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if store.identities[created.ID].RefreshTokenHash != "" {
		t.Fatalf("expected stored hash to be cleared on logout")
	}
}

func TestIdentityService_AuditTrail(t *testing.T) {
	store := newStubIdentityStore()
	hasher := hash.New(bcrypt.MinCost)
	codec := token.NewCodec("access-secret", "refresh-secret", time.Hour, time.Hour)
	audit := &recordingAudit{}
	svc := NewIdentityService(store, hasher, codec, nil, audit, zerolog.Nop())

	if _, err := svc.Register(context.Background(), ports.RegisterInput{
		Email: "u1@example.com", Password: "pw12345678", Role: domain.RoleVendor,
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "u1@example.com", "bad"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected failed login, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "u1@example.com", "pw12345678"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	want := []string{ports.AuditRegister, ports.AuditLoginFailure, ports.AuditLoginSuccess}
	if len(audit.events) != len(want) {
		t.Fatalf("expected %d audit events, got %d", len(want), len(audit.events))
	}
	for i, action := range want {
		if audit.events[i].Action != action {
			t.Fatalf("event %d: expected %s, got %s", i, action, audit.events[i].Action)
		}
	}
}
