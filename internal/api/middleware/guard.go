package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jobhub/identity/internal/api/metrics"
	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// Guard enforces req on the route. It must run after Auth; a request without
// a principal is denied unless req is empty.
func Guard(authz ports.Authorizer, req ports.Requirement) echo.MiddlewareFunc {
	label := guardLabel(req)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			p, _ := PrincipalFrom(c)
			err := authz.Authorize(c.Request().Context(), p, req)
			metrics.GuardDecisionDuration.Observe(time.Since(start).Seconds())

			if err != nil {
				metrics.GuardDecisionsTotal.WithLabelValues(label, "deny").Inc()
				return err
			}
			metrics.GuardDecisionsTotal.WithLabelValues(label, "allow").Inc()
			return next(c)
		}
	}
}

// RequireRoles admits principals holding any of roles.
func RequireRoles(authz ports.Authorizer, roles ...domain.RoleName) echo.MiddlewareFunc {
	return Guard(authz, ports.Requirement{Roles: roles})
}

// RequirePermissions admits principals holding every code.
func RequirePermissions(authz ports.Authorizer, codes ...string) echo.MiddlewareFunc {
	return Guard(authz, ports.Requirement{Permissions: codes})
}

func guardLabel(req ports.Requirement) string {
	switch {
	case len(req.Roles) > 0 && len(req.Permissions) > 0:
		return "roles_permissions"
	case len(req.Roles) > 0:
		return "roles"
	case len(req.Permissions) > 0:
		return "permissions"
	}
	return "none"
}
