package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jobhub/identity/internal/core/domain"
)

func renderError(t *testing.T, method string, err error) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var resp errorResponse
	if rec.Body.Len() > 0 {
		if jerr := json.Unmarshal(rec.Body.Bytes(), &resp); jerr != nil {
			t.Fatalf("invalid json %q: %v", rec.Body.String(), jerr)
		}
	}
	return rec.Code, resp
}

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
		code    string
	}{
		{"invalid credentials", fmt.Errorf("login: %w", domain.ErrInvalidCredentials), http.StatusUnauthorized, "Invalid email or password", "invalid_credentials"},
		{"expired token", &domain.TokenError{Kind: domain.TokenExpired}, http.StatusUnauthorized, domain.TokenExpired.Message(), "expired"},
		{"revoked token", domain.ErrTokenRevoked, http.StatusUnauthorized, "token has been revoked", "unauthorized"},
		{"insufficient role", domain.ErrInsufficientRole, http.StatusForbidden, "insufficient role", "forbidden"},
		{"insufficient permissions", domain.ErrInsufficientPermissions, http.StatusForbidden, "insufficient permissions", "forbidden"},
		{"forbidden with store failure", fmt.Errorf("%w: lookup: connection reset", domain.ErrForbidden), http.StatusForbidden, "access denied", "forbidden"},
		{"conflict", fmt.Errorf("register: %w", domain.ErrEmailTaken), http.StatusConflict, "email already registered", "conflict"},
		{"not found", fmt.Errorf("decide: %w", domain.ErrRegistrationNotFound), http.StatusNotFound, "registration not found", "not_found"},
		{"invalid input", fmt.Errorf("%w %q", domain.ErrUnknownRole, "OWNER"), http.StatusBadRequest, `unknown role "OWNER"`, "invalid_input"},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload", ""},
		{"unexpected", errors.New("mongo: connection refused"), http.StatusInternalServerError, "internal server error", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := renderError(t, http.MethodGet, tc.err)
			if status != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, status)
			}
			if resp.Error != tc.message || resp.Code != tc.code {
				t.Fatalf("unexpected body: %+v", resp)
			}
		})
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	status, resp := renderError(t, http.MethodHead, domain.ErrUserNotFound)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if resp.Error != "" {
		t.Fatalf("HEAD must not carry a body: %+v", resp)
	}
}
