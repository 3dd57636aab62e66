package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jobhub/identity/internal/api/middleware"
	"github.com/jobhub/identity/internal/core/domain"
)

// ctxPrincipal returns the principal injected by the Auth middleware.
// A route reaching a handler without one is wired wrong, so it fails closed with 401.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || !p.Valid() {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// roleParam parses a role name path parameter; unknown names are InvalidInput.
func roleParam(c echo.Context) (domain.RoleName, error) {
	return domain.ParseRoleName(c.Param("role"))
}
