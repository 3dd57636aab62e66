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

// DefaultRole is granted to every newly registered user.
const DefaultRole = domain.RoleCandidate

// AuthService implements registration, login, refresh and token revocation.
type AuthService struct {
	store    ports.CredentialStore
	hasher   ports.PasswordHasher
	codec    ports.TokenCodec
	registry *RoleRegistry
	log      zerolog.Logger

	// dummyHash is compared against when the email is unknown so that both
	// login failure paths cost one hash verification.
	dummyHash string
}

func NewAuthService(
	store ports.CredentialStore,
	hasher ports.PasswordHasher,
	codec ports.TokenCodec,
	registry *RoleRegistry,
	log zerolog.Logger,
) (*AuthService, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("auth service: prepare dummy hash: %w", err)
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		codec:     codec,
		registry:  registry,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Register creates a user with token version 0 and grants it DefaultRole.
// The user row and the role grant are written in one transaction.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	displayName := strings.TrimSpace(in.DisplayName)
	if _, err := mail.ParseAddress(email); err != nil || displayName == "" {
		return nil, fmt.Errorf("%w: email and display name are required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := time.Now().UTC()
	var created *domain.User
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
		u, err := tx.CreateUser(ctx, &domain.User{
			Email:        email,
			PasswordHash: hash,
			DisplayName:  displayName,
			TokenVersion: 0,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}

		roleID, err := s.registry.Bind(tx).Resolve(ctx, DefaultRole)
		if err != nil {
			return err
		}
		if _, err := tx.CreateUserRole(ctx, &domain.UserRole{
			UserID:     u.ID,
			RoleID:     roleID,
			AssignedAt: now,
		}); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created.Sanitized(), nil
}

// Login verifies credentials and issues an access and a refresh token stamped
// with the user's current token version. Unknown emails and wrong passwords
// fail identically with domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.log.Warn().Str("reason", "unknown_email").Msg("login failed")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Warn().Str("user_id", user.ID).Str("reason", "password_mismatch").Msg("login failed")
		return nil, domain.ErrInvalidCredentials
	}

	roles, err := s.roleNames(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	access, accessExp, err := s.codec.SignAccess(principalFor(user, roles))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	refresh, refreshExp, err := s.codec.SignRefresh(domain.RefreshClaims{
		SubjectID:    user.ID,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Int("token_version", user.TokenVersion).Msg("login succeeded")
	return &ports.LoginResult{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		User:             user.View(roles),
	}, nil
}

// Refresh issues a new access token if claims still match the stored token
// version. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, claims domain.RefreshClaims) (*ports.RefreshResult, error) {
	user, err := s.currentUser(ctx, claims.SubjectID, claims.TokenVersion)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", claims.SubjectID).Msg("refresh rejected")
		return nil, err
	}

	roles, err := s.roleNames(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	access, exp, err := s.codec.SignAccess(principalFor(user, roles))
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return &ports.RefreshResult{
		AccessToken:     access,
		AccessExpiresAt: exp,
		User:            user.View(roles),
	}, nil
}

func (s *AuthService) RefreshWithToken(ctx context.Context, refreshToken string) (*ports.RefreshResult, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	return s.Refresh(ctx, *claims)
}

// Authenticate verifies an access token and rejects it when the subject is
// gone or its token version has moved on since issuance.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error) {
	principal, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	if _, err := s.currentUser(ctx, principal.SubjectID, principal.TokenVersion); err != nil {
		return nil, err
	}
	return principal, nil
}

// ChangePassword replaces the password and bumps the token version, which
// invalidates every token issued before the change.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	version, err := s.store.UpdateUserPassword(ctx, userID, hash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", userID).Int("token_version", version).Msg("password changed")
	return nil
}

// RevokeTokens bumps the user's token version and returns the new value.
func (s *AuthService) RevokeTokens(ctx context.Context, userID string) (int, error) {
	version, err := s.store.UpdateUserTokenVersion(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke tokens: %w", err)
	}
	s.log.Info().Str("user_id", userID).Int("token_version", version).Msg("tokens revoked")
	return version, nil
}

// currentUser loads the subject and compares its token version in a single
// read immediately before the comparison.
func (s *AuthService) currentUser(ctx context.Context, userID string, tokenVersion int) (*domain.User, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnknownSubject
		}
		return nil, fmt.Errorf("load token subject: %w", err)
	}
	if user.TokenVersion != tokenVersion {
		return nil, domain.ErrTokenRevoked
	}
	return user, nil
}

func (s *AuthService) roleNames(ctx context.Context, userID string) ([]domain.RoleName, error) {
	roles, err := s.store.ListRolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.RoleNames(roles), nil
}

func principalFor(u *domain.User, roles []domain.RoleName) domain.Principal {
	return domain.Principal{
		SubjectID:    u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Roles:        roles,
		TokenVersion: u.TokenVersion,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
