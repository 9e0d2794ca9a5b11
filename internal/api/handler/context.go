package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anvaya/identity-service/internal/api/middleware"
	"github.com/anvaya/identity-service/internal/core/domain"
)

// currentIdentity extracts the identity injected by the access guard or
// the refresh guard. Its absence means the route was registered without
// a guard, which is a wiring bug surfaced as 401 rather than a panic.
func currentIdentity(c echo.Context) (*domain.Identity, error) {
	identity, _ := c.Get(middleware.IdentityKey).(*domain.Identity)
	if identity == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}
