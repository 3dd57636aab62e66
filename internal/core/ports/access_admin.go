package ports

import (
	"context"

	"github.com/jobhub/identity/internal/core/domain"
)

// RoleWithPermissions is a role together with the codes it grants.
type RoleWithPermissions struct {
	domain.Role
	Permissions []string `json:"permissions"`
}

// AccessAdminService manages role and permission grants.
type AccessAdminService interface {
	AssignRole(ctx context.Context, actorID, userID string, role domain.RoleName) (*domain.UserRole, error)
	RemoveRole(ctx context.Context, userID string, role domain.RoleName) error
	ListUserRoles(ctx context.Context, userID string) ([]domain.Role, error)

	ListRoles(ctx context.Context) ([]RoleWithPermissions, error)
	DeleteRole(ctx context.Context, role domain.RoleName) error

	ListPermissions(ctx context.Context) ([]domain.Permission, error)
	CreatePermission(ctx context.Context, p domain.Permission) (*domain.Permission, error)
	DeletePermission(ctx context.Context, code string) error
	AssignPermission(ctx context.Context, role domain.RoleName, code string) (*domain.RolePermission, error)
	RemovePermission(ctx context.Context, role domain.RoleName, code string) error
}
