package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jobhub/identity/internal/api/metrics"
	"github.com/jobhub/identity/internal/core/domain"
)

const principalKey = "principal"

// TokenAuthenticator verifies an access token and returns its principal.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error)
}

// Auth validates the bearer access token and stores the principal in the
// echo context. Rejections are returned as errors for the HTTP error handler.
func Auth(authn TokenAuthenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			p, err := authn.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			metrics.TokenVerificationsTotal.WithLabelValues("access", VerificationResult(err)).Inc()
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("access token rejected")
				return err
			}

			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// SetPrincipal stores p in the echo context.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by Auth, if any.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	if !ok || !p.Valid() {
		return nil, false
	}
	return p, true
}

// VerificationResult maps a token verification outcome to its metric label.
func VerificationResult(err error) string {
	if err == nil {
		return "ok"
	}
	if te, ok := domain.AsTokenError(err); ok {
		return string(te.Kind)
	}
	switch {
	case errors.Is(err, domain.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, domain.ErrUnknownSubject):
		return "unknown_subject"
	}
	return "error"
}
