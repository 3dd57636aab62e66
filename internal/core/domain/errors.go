package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the core wraps exactly one of
// these, so the transport layer can map it without knowing the concrete value.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Unauthorized.
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrTokenRevoked       = fmt.Errorf("%w: token has been revoked", ErrUnauthorized)
	ErrUnknownSubject     = fmt.Errorf("%w: token subject no longer exists", ErrUnauthorized)
)

// Forbidden.
var (
	ErrMissingPrincipal        = fmt.Errorf("%w: access denied", ErrForbidden)
	ErrInsufficientRole        = fmt.Errorf("%w: insufficient role", ErrForbidden)
	ErrInsufficientPermissions = fmt.Errorf("%w: insufficient permissions", ErrForbidden)
)

// Conflict.
var (
	ErrEmailTaken                = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrRoleExists                = fmt.Errorf("%w: role already exists", ErrConflict)
	ErrPermissionExists          = fmt.Errorf("%w: permission with this name or code already exists", ErrConflict)
	ErrRoleAlreadyAssigned       = fmt.Errorf("%w: user already has this role", ErrConflict)
	ErrPermissionAlreadyAssigned = fmt.Errorf("%w: role already has this permission", ErrConflict)
	ErrAlreadyEmployer           = fmt.Errorf("%w: user already holds the employer role", ErrConflict)
	ErrRegistrationProcessed     = fmt.Errorf("%w: registration has already been processed", ErrConflict)
	ErrRegistrationPending       = fmt.Errorf("%w: a registration for this user is already pending", ErrConflict)
	ErrRoleInUse                 = fmt.Errorf("%w: role is still referenced by users or permissions", ErrConflict)
	ErrPermissionInUse           = fmt.Errorf("%w: permission is still granted to roles", ErrConflict)
)

// Not found.
var (
	ErrUserNotFound          = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrRoleNotFound          = fmt.Errorf("%w: role not found", ErrNotFound)
	ErrPermissionNotFound    = fmt.Errorf("%w: permission not found", ErrNotFound)
	ErrRegistrationNotFound  = fmt.Errorf("%w: registration not found", ErrNotFound)
	ErrRoleNotAssigned       = fmt.Errorf("%w: user does not have this role", ErrNotFound)
	ErrPermissionNotAssigned = fmt.Errorf("%w: role does not have this permission", ErrNotFound)
)

// Invalid input.
var (
	ErrUnknownRole     = fmt.Errorf("%w: unknown role", ErrInvalidInput)
	ErrInvalidDecision = fmt.Errorf("%w: decision must be APPROVED or REJECTED", ErrInvalidInput)
	ErrWeakPassword    = fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
)

// TokenErrorKind is the sub-reason of a failed token verification.
type TokenErrorKind string

const (
	TokenExpired           TokenErrorKind = "expired"
	TokenMalformed         TokenErrorKind = "malformed"
	TokenSignatureMismatch TokenErrorKind = "signature_mismatch"
	TokenNotYetValid       TokenErrorKind = "not_yet_valid"
)

// Message is the client-facing text for the kind.
func (k TokenErrorKind) Message() string {
	switch k {
	case TokenExpired:
		return "token expired"
	case TokenSignatureMismatch:
		return "invalid token signature"
	case TokenNotYetValid:
		return "token not yet valid"
	default:
		return "malformed token"
	}
}

// TokenError reports why a token was rejected. It always matches ErrUnauthorized.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return "token " + string(e.Kind)
	}
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *TokenError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnauthorized}
	}
	return []error{ErrUnauthorized, e.Err}
}

// AsTokenError extracts a *TokenError from err's chain.
func AsTokenError(err error) (*TokenError, bool) {
	var te *TokenError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
