package ports

import (
	"context"

	"github.com/jobhub/identity/internal/core/domain"
)

// Requirement is the access rule attached to an operation. Roles use OR
// semantics, Permissions use AND semantics; when both are set both must pass.
type Requirement struct {
	Roles       []domain.RoleName
	Permissions []string
}

// Empty reports whether the requirement admits any principal.
func (r Requirement) Empty() bool {
	return len(r.Roles) == 0 && len(r.Permissions) == 0
}

// Authorizer evaluates access decisions for a principal.
type Authorizer interface {
	HasAnyRole(p *domain.Principal, required []domain.RoleName) bool
	HasAllPermissions(ctx context.Context, p *domain.Principal, required []string) (bool, error)
	// Authorize returns nil when p satisfies req, otherwise an error wrapping domain.ErrForbidden.
	Authorize(ctx context.Context, p *domain.Principal, req Requirement) error
}

// RoleResolver maps a role name to its stored identity, creating it on first use.
type RoleResolver interface {
	Resolve(ctx context.Context, name domain.RoleName) (string, error)
}
