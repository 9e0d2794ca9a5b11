package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/anvaya/identity-service/internal/core/domain"
)

func roleContext(role string) (echo.Context, *httptest.ResponseRecorder, *echo.Echo) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(RoleKey, role)
	}
	return c, rec, e
}

func TestRequireRoles_Allows(t *testing.T) {
	c, rec, _ := roleContext("admin")

	called := false
	handler := RequireRoles(domain.RoleAdmin)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with next called, got %d", rec.Code)
	}
}

func TestRequireRoles_Forbids(t *testing.T) {
	c, rec, e := roleContext("vendor")

	handler := RequireRoles(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRoles_EmptyRequirementAdmitsAnyRole(t *testing.T) {
	for _, role := range []string{"admin", "vendor", "organizer"} {
		c, rec, _ := roleContext(role)

		handler := RequireRoles()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})

		if err := handler(c); err != nil {
			t.Fatalf("handler error for role %s: %v", role, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for role %s, got %d", role, rec.Code)
		}
	}
}
