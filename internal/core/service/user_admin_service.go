package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// UserAdminService lets administrators create, inspect, edit and remove
// user accounts.
type UserAdminService struct {
	store    ports.CredentialStore
	hasher   ports.PasswordHasher
	registry *RoleRegistry
	cache    ports.PermissionCache
	log      zerolog.Logger
}

// NewUserAdminService returns a service. cache may be nil.
func NewUserAdminService(
	store ports.CredentialStore,
	hasher ports.PasswordHasher,
	registry *RoleRegistry,
	cache ports.PermissionCache,
	log zerolog.Logger,
) *UserAdminService {
	return &UserAdminService{store: store, hasher: hasher, registry: registry, cache: cache, log: log}
}

// CreateUser adds an account with token version 0. When in.Role is set the
// role is granted in the same transaction, recorded as assigned by actorID.
func (s *UserAdminService) CreateUser(ctx context.Context, actorID string, in ports.CreateUserInput) (*ports.UserDetail, error) {
	email := normalizeEmail(in.Email)
	displayName := strings.TrimSpace(in.DisplayName)
	if _, err := mail.ParseAddress(email); err != nil || displayName == "" {
		return nil, fmt.Errorf("%w: email and display name are required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role != "" && !in.Role.Valid() {
		return nil, fmt.Errorf("%w %q", domain.ErrUnknownRole, in.Role)
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	now := time.Now().UTC()
	var created *domain.User
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
		u, err := tx.CreateUser(ctx, &domain.User{
			Email:        email,
			PasswordHash: hash,
			DisplayName:  displayName,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		created = u
		if in.Role == "" {
			return nil
		}

		roleID, err := s.registry.Bind(tx).Resolve(ctx, in.Role)
		if err != nil {
			return err
		}
		_, err = tx.CreateUserRole(ctx, &domain.UserRole{
			UserID:     u.ID,
			RoleID:     roleID,
			AssignedBy: actorID,
			AssignedAt: now,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().
		Str("user_id", created.ID).
		Str("role", string(in.Role)).
		Str("created_by", actorID).
		Msg("user created")
	return s.detail(ctx, created)
}

// ListUsers returns every user with its roles, ordered by email.
func (s *UserAdminService) ListUsers(ctx context.Context) ([]ports.UserDetail, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]ports.UserDetail, 0, len(users))
	for i := range users {
		d, err := s.detail(ctx, &users[i])
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *UserAdminService) GetUser(ctx context.Context, userID string) (*ports.UserDetail, error) {
	u, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return s.detail(ctx, u)
}

// UpdateUser applies the non-nil fields of upd. A new password also bumps the
// token version, signing the user out everywhere.
func (s *UserAdminService) UpdateUser(ctx context.Context, userID string, upd ports.UserUpdate) (*ports.UserDetail, error) {
	if upd.Email == nil && upd.DisplayName == nil && upd.Password == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	profile := *user
	if upd.Email != nil {
		profile.Email = normalizeEmail(*upd.Email)
		if _, err := mail.ParseAddress(profile.Email); err != nil {
			return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
		}
	}
	if upd.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*upd.DisplayName)
		if profile.DisplayName == "" {
			return nil, fmt.Errorf("%w: display name must not be empty", domain.ErrInvalidInput)
		}
	}
	var hash string
	if upd.Password != nil {
		if err := domain.ValidatePassword(*upd.Password); err != nil {
			return nil, err
		}
		if hash, err = s.hasher.Hash(*upd.Password); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	profileChanged := profile.Email != user.Email || profile.DisplayName != user.DisplayName

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
		if profileChanged {
			profile.UpdatedAt = time.Now().UTC()
			updated, err := tx.UpdateUserProfile(ctx, &profile)
			if err != nil {
				return err
			}
			user = updated
		}
		if hash != "" {
			version, err := tx.UpdateUserPassword(ctx, userID, hash)
			if err != nil {
				return err
			}
			user.TokenVersion = version
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Bool("profile_changed", profileChanged).
		Bool("password_changed", hash != "").
		Msg("user updated")
	return s.detail(ctx, user)
}

// DeleteUser removes the user, its role grants and its registrations.
func (s *UserAdminService) DeleteUser(ctx context.Context, userID string) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
		return tx.DeleteUser(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	invalidateUser(ctx, s.cache, s.log, userID)
	s.log.Info().Str("user_id", userID).Msg("user deleted")
	return nil
}

func (s *UserAdminService) detail(ctx context.Context, u *domain.User) (*ports.UserDetail, error) {
	roles, err := s.store.ListRolesForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &ports.UserDetail{User: *u.Sanitized(), Roles: domain.RoleNames(roles)}, nil
}
