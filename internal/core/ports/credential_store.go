package ports

import (
	"context"

	"github.com/jobhub/identity/internal/core/domain"
)

// UserStore persists users and their credentials.
type UserStore interface {
	// FindUserByEmail returns domain.ErrUserNotFound when no user has the email.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	// CreateUser returns domain.ErrEmailTaken when the email is already in use.
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	// UpdateUserTokenVersion atomically increments the user's token version and
	// returns the new value.
	UpdateUserTokenVersion(ctx context.Context, userID string) (int, error)
	// UpdateUserPassword replaces the hash and increments the token version in
	// one write, returning the new version.
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) (int, error)
	// ListUsers returns every user ordered by email.
	ListUsers(ctx context.Context) ([]domain.User, error)
	// UpdateUserProfile writes the email, display name and updated-at of
	// user.ID. It returns domain.ErrEmailTaken when another user holds the email.
	UpdateUserProfile(ctx context.Context, user *domain.User) (*domain.User, error)
	// DeleteUser removes the user together with its role grants and
	// employer registrations.
	DeleteUser(ctx context.Context, userID string) error
}

// RoleStore persists role identities.
type RoleStore interface {
	FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
	// CreateRole returns domain.ErrRoleExists when a role with the same name exists.
	CreateRole(ctx context.Context, role *domain.Role) (*domain.Role, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)
	// DeleteRole returns domain.ErrRoleInUse while any user or permission join references it.
	DeleteRole(ctx context.Context, roleID string) error
}

// PermissionStore persists permissions and their grants to roles.
type PermissionStore interface {
	FindPermissionByCode(ctx context.Context, code string) (*domain.Permission, error)
	// CreatePermission returns domain.ErrPermissionExists on a duplicate name or code.
	CreatePermission(ctx context.Context, p *domain.Permission) (*domain.Permission, error)
	ListPermissions(ctx context.Context) ([]domain.Permission, error)
	// DeletePermission returns domain.ErrPermissionInUse while any role holds it.
	DeletePermission(ctx context.Context, permissionID string) error
	// ListPermissionCodesForRoles returns the distinct codes granted to any of roleIDs.
	ListPermissionCodesForRoles(ctx context.Context, roleIDs []string) ([]string, error)
	// CreateRolePermission returns domain.ErrPermissionAlreadyAssigned on a duplicate pair.
	CreateRolePermission(ctx context.Context, rp *domain.RolePermission) (*domain.RolePermission, error)
	// DeleteRolePermission returns domain.ErrPermissionNotAssigned when the pair is absent.
	DeleteRolePermission(ctx context.Context, roleID, permissionID string) error
}

// UserRoleStore persists role grants to users.
type UserRoleStore interface {
	// CreateUserRole returns domain.ErrRoleAlreadyAssigned on a duplicate pair.
	CreateUserRole(ctx context.Context, ur *domain.UserRole) (*domain.UserRole, error)
	// FindUserRole returns domain.ErrRoleNotAssigned when the pair is absent.
	FindUserRole(ctx context.Context, userID, roleID string) (*domain.UserRole, error)
	// DeleteUserRole returns domain.ErrRoleNotAssigned when the pair is absent.
	DeleteUserRole(ctx context.Context, userID, roleID string) error
	ListRolesForUser(ctx context.Context, userID string) ([]domain.Role, error)
}

// RegistrationFilter narrows ListRegistrations. Empty fields match everything.
type RegistrationFilter struct {
	UserID string
	Status domain.RegistrationStatus
}

// RegistrationStore persists employer registrations.
type RegistrationStore interface {
	CreateRegistration(ctx context.Context, r *domain.EmployerRegistration) (*domain.EmployerRegistration, error)
	FindRegistrationByID(ctx context.Context, id string) (*domain.EmployerRegistration, error)
	// ListRegistrations returns registrations matching filter, newest first.
	ListRegistrations(ctx context.Context, filter RegistrationFilter) ([]domain.EmployerRegistration, error)
	// DecideRegistration writes status, notes, processedBy and processedAt, but
	// only while the stored registration is still PENDING. Otherwise it returns
	// domain.ErrRegistrationProcessed.
	DecideRegistration(ctx context.Context, r *domain.EmployerRegistration) error
}

// CredentialStore is the persistence collaborator of the identity core.
type CredentialStore interface {
	UserStore
	RoleStore
	PermissionStore
	UserRoleStore
	RegistrationStore

	// WithTransaction runs fn inside a transaction. fn must use the provided
	// ctx and tx for every write that belongs to the transaction. A non-nil
	// error from fn rolls everything back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx CredentialStore) error) error
}

// CachedPermissions is the outcome of a cache read. Version names the
// invalidation state the read observed.
type CachedPermissions struct {
	Codes   []string
	Hit     bool
	Version string
}

// PermissionCache caches the effective permission codes of a user.
// Implementations must treat misses and errors as "compute from the store".
type PermissionCache interface {
	Get(ctx context.Context, userID string) (CachedPermissions, error)
	// Set stores codes under the Version returned by the Get that missed. If
	// an invalidation happened since that Get the entry is never served.
	Set(ctx context.Context, userID, version string, codes []string) error
	// InvalidateUser drops the entry of one user (role granted or removed).
	InvalidateUser(ctx context.Context, userID string) error
	// InvalidateAll drops every entry (role/permission grants changed).
	InvalidateAll(ctx context.Context) error
}
