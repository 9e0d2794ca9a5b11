package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anvaya/identity-service/internal/api/metrics"
	"github.com/anvaya/identity-service/internal/core/domain"
	"github.com/anvaya/identity-service/internal/core/ports"
	"github.com/anvaya/identity-service/pkg/hash"
	"github.com/anvaya/identity-service/pkg/token"
)

// Context keys populated by the guards.
const (
	IdentityKey = "identity"
	RoleKey     = "role"
)

// Auth validates an access token, re-resolves the identity and injects
// it into the request context.
func Auth(codec *token.Codec, store ports.IdentityStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := authenticate(c, store, func(raw string) (string, error) {
				claims, err := codec.ParseAccess(raw)
				if err != nil {
					return "", err
				}
				return claims.IdentityID, nil
			}, nil)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("access", "rejected").Inc()
				return err
			}
			metrics.TokenVerificationsTotal.WithLabelValues("access", "ok").Inc()
			return next(c)
		}
	}
}

// RefreshAuth validates a refresh token against both its signature and
// the hash stored for the identity. Rotating or clearing the stored
// hash therefore revokes every previously issued refresh token, even
// before it expires.
func RefreshAuth(codec *token.Codec, store ports.IdentityStore, hasher *hash.Hasher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := authenticate(c, store, func(raw string) (string, error) {
				claims, err := codec.ParseRefresh(raw)
				if err != nil {
					return "", err
				}
				return claims.IdentityID, nil
			}, func(raw string, identity *domain.Identity) error {
				if identity.RefreshTokenHash == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				if !hasher.Verify(hash.Fingerprint(raw), identity.RefreshTokenHash) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return nil
			})
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("refresh", "rejected").Inc()
				return err
			}
			metrics.TokenVerificationsTotal.WithLabelValues("refresh", "ok").Inc()
			return next(c)
		}
	}
}

// authenticate is the shared bearer-token flow: extract the token,
// parse it into an identity id, re-resolve the identity from the store
// and run the optional extra check before exposing a sanitized copy.
// The access and refresh guards are two configurations of this one
// function, differing only in parse and extra.
func authenticate(
	c echo.Context,
	store ports.IdentityStore,
	parse func(raw string) (string, error),
	extra func(raw string, identity *domain.Identity) error,
) error {
	raw, err := bearerToken(c)
	if err != nil {
		return err
	}

	id, err := parse(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	identity, err := store.FindByID(c.Request().Context(), id)
	if err != nil {
		// The identity behind a structurally valid token may have been
		// deleted; treat that the same as a bad token.
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	if extra != nil {
		if err := extra(raw, identity); err != nil {
			return err
		}
	}

	sanitized := identity.Sanitized()
	c.Set(IdentityKey, sanitized)
	c.Set(RoleKey, string(sanitized.Role))
	return nil
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
