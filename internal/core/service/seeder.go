package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// AdminAccount describes the bootstrap administrator. An empty Email skips it.
type AdminAccount struct {
	Email       string
	Password    string
	DisplayName string
}

// SeedReport counts what a seed run created. Rows that already existed are
// not counted, so a second run reports zeros.
type SeedReport struct {
	PermissionsCreated int
	RolesResolved      int
	GrantsCreated      int
	AdminCreated       bool
}

// Seeder installs the default permission catalogue, the role to permission
// map and optionally an administrator. Running it again is a no-op.
type Seeder struct {
	store    ports.CredentialStore
	hasher   ports.PasswordHasher
	registry *RoleRegistry
	log      zerolog.Logger
}

func NewSeeder(store ports.CredentialStore, hasher ports.PasswordHasher, registry *RoleRegistry, log zerolog.Logger) *Seeder {
	return &Seeder{store: store, hasher: hasher, registry: registry, log: log}
}

func (s *Seeder) Seed(ctx context.Context, admin AdminAccount) (*SeedReport, error) {
	report := &SeedReport{}

	permIDs := make(map[string]string)
	for _, p := range domain.DefaultPermissions() {
		id, created, err := s.ensurePermission(ctx, p)
		if err != nil {
			return nil, err
		}
		permIDs[p.Code] = id
		if created {
			report.PermissionsCreated++
		}
	}

	grants := domain.DefaultRolePermissions()
	allCodes := make([]string, 0, len(permIDs))
	for _, p := range domain.DefaultPermissions() {
		allCodes = append(allCodes, p.Code)
	}
	grants[domain.RoleAdmin] = allCodes

	for _, role := range domain.AllRoles() {
		roleID, err := s.registry.Resolve(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		report.RolesResolved++

		for _, code := range grants[role] {
			_, err := s.store.CreateRolePermission(ctx, &domain.RolePermission{
				RoleID:       roleID,
				PermissionID: permIDs[code],
				CreatedAt:    time.Now().UTC(),
			})
			switch {
			case err == nil:
				report.GrantsCreated++
			case errors.Is(err, domain.ErrPermissionAlreadyAssigned):
			default:
				return nil, fmt.Errorf("seed: grant %s to %s: %w", code, role, err)
			}
		}
	}

	if strings.TrimSpace(admin.Email) != "" {
		created, err := s.ensureAdmin(ctx, admin)
		if err != nil {
			return nil, err
		}
		report.AdminCreated = created
	}

	s.log.Info().
		Int("permissions_created", report.PermissionsCreated).
		Int("roles", report.RolesResolved).
		Int("grants_created", report.GrantsCreated).
		Bool("admin_created", report.AdminCreated).
		Msg("seed completed")
	return report, nil
}

func (s *Seeder) ensurePermission(ctx context.Context, p domain.Permission) (string, bool, error) {
	existing, err := s.store.FindPermissionByCode(ctx, p.Code)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, domain.ErrPermissionNotFound) {
		return "", false, fmt.Errorf("seed: find permission %s: %w", p.Code, err)
	}

	p.CreatedAt = time.Now().UTC()
	created, err := s.store.CreatePermission(ctx, &p)
	if err != nil {
		return "", false, fmt.Errorf("seed: create permission %s: %w", p.Code, err)
	}
	return created.ID, true, nil
}

// ensureAdmin creates the administrator if needed and makes sure it holds ADMIN.
func (s *Seeder) ensureAdmin(ctx context.Context, admin AdminAccount) (bool, error) {
	email := normalizeEmail(admin.Email)
	roleID, err := s.registry.Resolve(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		if err := domain.ValidatePassword(admin.Password); err != nil {
			return false, fmt.Errorf("seed admin: %w", err)
		}
		hash, err := s.hasher.Hash(admin.Password)
		if err != nil {
			return false, fmt.Errorf("seed admin: %w", err)
		}
		name := strings.TrimSpace(admin.DisplayName)
		if name == "" {
			name = "Administrator"
		}
		now := time.Now().UTC()
		user, err = s.store.CreateUser(ctx, &domain.User{
			Email:        email,
			PasswordHash: hash,
			DisplayName:  name,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return false, fmt.Errorf("seed admin: %w", err)
		}
		created = true
	default:
		return false, fmt.Errorf("seed admin: %w", err)
	}

	_, err = s.store.CreateUserRole(ctx, &domain.UserRole{
		UserID:     user.ID,
		RoleID:     roleID,
		AssignedAt: time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, domain.ErrRoleAlreadyAssigned) {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return created, nil
}
