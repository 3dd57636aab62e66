package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

var permissionCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*:[a-z][a-z0-9_-]*$`)

// AccessAdminService manages the role and permission catalogue and the
// grants between users, roles and permissions.
type AccessAdminService struct {
	store    ports.CredentialStore
	registry *RoleRegistry
	cache    ports.PermissionCache
	log      zerolog.Logger
}

// NewAccessAdminService returns a service. cache may be nil.
func NewAccessAdminService(
	store ports.CredentialStore,
	registry *RoleRegistry,
	cache ports.PermissionCache,
	log zerolog.Logger,
) *AccessAdminService {
	return &AccessAdminService{store: store, registry: registry, cache: cache, log: log}
}

// AssignRole grants role to userID. Granting a role the user already holds
// returns domain.ErrRoleAlreadyAssigned.
func (s *AccessAdminService) AssignRole(ctx context.Context, actorID, userID string, role domain.RoleName) (*domain.UserRole, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	roleID, err := s.registry.Resolve(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	ur, err := s.store.CreateUserRole(ctx, &domain.UserRole{
		UserID:     userID,
		RoleID:     roleID,
		AssignedBy: actorID,
		AssignedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	invalidateUser(ctx, s.cache, s.log, userID)
	s.log.Info().
		Str("user_id", userID).
		Str("role", string(role)).
		Str("assigned_by", actorID).
		Msg("role assigned")
	return ur, nil
}

func (s *AccessAdminService) RemoveRole(ctx context.Context, userID string, role domain.RoleName) error {
	r, err := s.findRole(ctx, role)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	if err := s.store.DeleteUserRole(ctx, userID, r.ID); err != nil {
		return fmt.Errorf("remove role: %w", err)
	}

	invalidateUser(ctx, s.cache, s.log, userID)
	s.log.Info().Str("user_id", userID).Str("role", string(role)).Msg("role removed")
	return nil
}

func (s *AccessAdminService) ListUserRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListRolesForUser(ctx, userID)
}

// ListRoles returns every stored role with the codes it grants.
func (s *AccessAdminService) ListRoles(ctx context.Context) ([]ports.RoleWithPermissions, error) {
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	out := make([]ports.RoleWithPermissions, 0, len(roles))
	for _, r := range roles {
		codes, err := s.store.ListPermissionCodesForRoles(ctx, []string{r.ID})
		if err != nil {
			return nil, fmt.Errorf("list roles: %w", err)
		}
		if codes == nil {
			codes = []string{}
		}
		out = append(out, ports.RoleWithPermissions{Role: r, Permissions: codes})
	}
	return out, nil
}

// DeleteRole removes a role row. It fails with domain.ErrRoleInUse while any
// user or permission grant still references the role.
func (s *AccessAdminService) DeleteRole(ctx context.Context, role domain.RoleName) error {
	r, err := s.findRole(ctx, role)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if err := s.store.DeleteRole(ctx, r.ID); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	invalidateAll(ctx, s.cache, s.log)
	s.log.Info().Str("role", string(role)).Msg("role deleted")
	return nil
}

func (s *AccessAdminService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	return s.store.ListPermissions(ctx)
}

// CreatePermission adds a permission. Codes have the form "resource:action".
func (s *AccessAdminService) CreatePermission(ctx context.Context, p domain.Permission) (*domain.Permission, error) {
	p.Code = strings.ToLower(strings.TrimSpace(p.Code))
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || !permissionCodePattern.MatchString(p.Code) {
		return nil, fmt.Errorf("%w: permission needs a name and a code of the form resource:action", domain.ErrInvalidInput)
	}
	p.ID = ""
	p.CreatedAt = time.Now().UTC()

	created, err := s.store.CreatePermission(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}
	s.log.Info().Str("code", created.Code).Msg("permission created")
	return created, nil
}

// DeletePermission removes a permission. It fails with
// domain.ErrPermissionInUse while any role still holds it.
func (s *AccessAdminService) DeletePermission(ctx context.Context, code string) error {
	p, err := s.store.FindPermissionByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if err := s.store.DeletePermission(ctx, p.ID); err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	invalidateAll(ctx, s.cache, s.log)
	s.log.Info().Str("code", code).Msg("permission deleted")
	return nil
}

// AssignPermission grants the permission code to role, creating the role
// row if it has never been used.
func (s *AccessAdminService) AssignPermission(ctx context.Context, role domain.RoleName, code string) (*domain.RolePermission, error) {
	p, err := s.store.FindPermissionByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("assign permission: %w", err)
	}
	roleID, err := s.registry.Resolve(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("assign permission: %w", err)
	}

	rp, err := s.store.CreateRolePermission(ctx, &domain.RolePermission{
		RoleID:       roleID,
		PermissionID: p.ID,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("assign permission: %w", err)
	}

	invalidateAll(ctx, s.cache, s.log)
	s.log.Info().Str("role", string(role)).Str("code", code).Msg("permission assigned")
	return rp, nil
}

func (s *AccessAdminService) RemovePermission(ctx context.Context, role domain.RoleName, code string) error {
	r, err := s.findRole(ctx, role)
	if err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}
	p, err := s.store.FindPermissionByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}
	if err := s.store.DeleteRolePermission(ctx, r.ID, p.ID); err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}

	invalidateAll(ctx, s.cache, s.log)
	s.log.Info().Str("role", string(role)).Str("code", code).Msg("permission removed")
	return nil
}

func (s *AccessAdminService) findRole(ctx context.Context, role domain.RoleName) (*domain.Role, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w %q", domain.ErrUnknownRole, role)
	}
	return s.store.FindRoleByName(ctx, role)
}
