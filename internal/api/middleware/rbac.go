package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anvaya/identity-service/internal/core/domain"
)

// RequireRoles enforces a roles requirement declared at route
// registration time. An empty requirement admits any authenticated
// identity; the guards always run first, so an unauthenticated caller
// never reaches this check.
func RequireRoles(requirement ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(requirement))
	for _, r := range requirement {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(allowed) == 0 {
				return next(c)
			}
			role, _ := c.Get(RoleKey).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
