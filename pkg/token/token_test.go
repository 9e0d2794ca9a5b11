package token

import (
	"errors"
	"testing"
	"time"
)

func newTestCodec() *Codec {
	return NewCodec("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	c := newTestCodec()

	raw, err := c.SignAccess("id-1", "u1@example.com", "vendor")
	if err != nil {
		t.Fatalf("SignAccess failed: %v", err)
	}

	claims, err := c.ParseAccess(raw)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.IdentityID != "id-1" || claims.Email != "u1@example.com" || claims.Role != "vendor" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("expected issued-at and expiry to be set")
	}
}

func TestCodec_RefreshRoundTrip(t *testing.T) {
	c := newTestCodec()

	raw, err := c.SignRefresh("id-2")
	if err != nil {
		t.Fatalf("SignRefresh failed: %v", err)
	}

	claims, err := c.ParseRefresh(raw)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if claims.IdentityID != "id-2" {
		t.Fatalf("unexpected identity id: %s", claims.IdentityID)
	}
}

func TestCodec_WrongSecretFails(t *testing.T) {
	c := newTestCodec()
	other := NewCodec("different-secret", "different-refresh", time.Hour, time.Hour)

	raw, err := c.SignAccess("id-1", "u1@example.com", "vendor")
	if err != nil {
		t.Fatalf("SignAccess failed: %v", err)
	}

	if _, err := other.ParseAccess(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_SecretsAreIndependent(t *testing.T) {
	c := newTestCodec()

	access, err := c.SignAccess("id-1", "u1@example.com", "vendor")
	if err != nil {
		t.Fatalf("SignAccess failed: %v", err)
	}
	refresh, err := c.SignRefresh("id-1")
	if err != nil {
		t.Fatalf("SignRefresh failed: %v", err)
	}

	// An access token must not verify against the refresh secret and
	// vice versa.
	if _, err := c.ParseRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token verified against refresh secret")
	}
	if _, err := c.ParseAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token verified against access secret")
	}
}

func TestCodec_ExpiredTokenFails(t *testing.T) {
	expired := NewCodec("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	raw, err := expired.SignAccess("id-1", "u1@example.com", "vendor")
	if err != nil {
		t.Fatalf("SignAccess failed: %v", err)
	}
	if _, err := expired.ParseAccess(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	rawRefresh, err := expired.SignRefresh("id-1")
	if err != nil {
		t.Fatalf("SignRefresh failed: %v", err)
	}
	if _, err := expired.ParseRefresh(rawRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired refresh token to be rejected, got %v", err)
	}
}

func TestCodec_MalformedTokenFails(t *testing.T) {
	c := newTestCodec()

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		if _, err := c.ParseAccess(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}
