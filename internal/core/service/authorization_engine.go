package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// PermissionLookup is the slice of the credential store the engine reads.
type PermissionLookup interface {
	ListRolesForUser(ctx context.Context, userID string) ([]domain.Role, error)
	ListPermissionCodesForRoles(ctx context.Context, roleIDs []string) ([]string, error)
}

// AuthorizationEngine evaluates role and permission requirements.
//
// Role decisions use the roles embedded in the token. Permission decisions
// re-read the user's live role grants on every call (optionally through a
// short-lived cache), so revoking a permission does not wait for token expiry.
type AuthorizationEngine struct {
	store PermissionLookup
	cache ports.PermissionCache
	log   zerolog.Logger
}

// NewAuthorizationEngine returns an engine. cache may be nil.
func NewAuthorizationEngine(store PermissionLookup, cache ports.PermissionCache, log zerolog.Logger) *AuthorizationEngine {
	return &AuthorizationEngine{store: store, cache: cache, log: log}
}

// HasAnyRole reports whether p holds at least one of required. An empty
// requirement admits everyone; otherwise a missing principal is denied.
func (e *AuthorizationEngine) HasAnyRole(p *domain.Principal, required []domain.RoleName) bool {
	if len(required) == 0 {
		return true
	}
	if !p.Valid() {
		return false
	}
	for _, r := range required {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether p holds every code in required. An empty
// requirement admits everyone. ADMIN bypasses the check entirely. Lookup
// failures deny and are returned to the caller.
func (e *AuthorizationEngine) HasAllPermissions(ctx context.Context, p *domain.Principal, required []string) (bool, error) {
	missing, err := e.missingPermissions(ctx, p, required)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// Authorize checks both halves of req and returns a Forbidden error naming
// the first half that failed.
func (e *AuthorizationEngine) Authorize(ctx context.Context, p *domain.Principal, req ports.Requirement) error {
	if req.Empty() {
		return nil
	}
	if !p.Valid() {
		e.log.Warn().Msg("access denied: no valid principal")
		return domain.ErrMissingPrincipal
	}

	if !e.HasAnyRole(p, req.Roles) {
		e.log.Warn().
			Str("user_id", p.SubjectID).
			Str("required_roles", joinRoles(req.Roles)).
			Msg("access denied: missing role")
		return domain.ErrInsufficientRole
	}

	missing, err := e.missingPermissions(ctx, p, req.Permissions)
	if err != nil {
		e.log.Error().Err(err).Str("user_id", p.SubjectID).Msg("access denied: permission lookup failed")
		return fmt.Errorf("%w: %w", domain.ErrForbidden, err)
	}
	if len(missing) > 0 {
		e.log.Warn().
			Str("user_id", p.SubjectID).
			Strs("missing_permissions", missing).
			Msg("access denied: missing permissions")
		return domain.ErrInsufficientPermissions
	}
	return nil
}

func (e *AuthorizationEngine) missingPermissions(ctx context.Context, p *domain.Principal, required []string) ([]string, error) {
	if len(required) == 0 {
		return nil, nil
	}
	if !p.Valid() {
		return required, nil
	}
	// Deliberate privilege shortcut: ADMIN holds every permission, including
	// codes that do not exist.
	if p.HasRole(domain.RoleAdmin) {
		e.log.Debug().Str("user_id", p.SubjectID).Msg("admin bypasses permission check")
		return nil, nil
	}

	held, err := e.effectivePermissions(ctx, p.SubjectID)
	if err != nil {
		return required, err
	}

	var missing []string
	for _, code := range required {
		if _, ok := held[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing, nil
}

// effectivePermissions is the union of codes over every role the user holds now.
// The cache version is read before the store so a grant change racing the
// lookup cannot be cached under the newer version.
func (e *AuthorizationEngine) effectivePermissions(ctx context.Context, userID string) (map[string]struct{}, error) {
	var (
		cached    ports.CachedPermissions
		cacheable bool
	)
	if e.cache != nil {
		var err error
		cached, err = e.cache.Get(ctx, userID)
		switch {
		case err != nil:
			e.log.Warn().Err(err).Str("user_id", userID).Msg("permission cache read failed")
		case cached.Hit:
			return toSet(cached.Codes), nil
		default:
			cacheable = true
		}
	}

	roles, err := e.store.ListRolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	codes := []string{}
	if len(roles) > 0 {
		ids := make([]string, 0, len(roles))
		for _, r := range roles {
			ids = append(ids, r.ID)
		}
		codes, err = e.store.ListPermissionCodesForRoles(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("list role permissions: %w", err)
		}
	}

	if cacheable {
		if err := e.cache.Set(ctx, userID, cached.Version, codes); err != nil {
			e.log.Warn().Err(err).Str("user_id", userID).Msg("permission cache write failed")
		}
	}
	return toSet(codes), nil
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func joinRoles(roles []domain.RoleName) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
