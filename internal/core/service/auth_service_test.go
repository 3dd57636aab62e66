package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

func TestAuthService_Register_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, ports.RegisterInput{
		Email:       "  Alice@Example.com ",
		Password:    "pass123",
		DisplayName: "Alice",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("expected sanitized user, got hash %q", user.PasswordHash)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalised email, got %q", user.Email)
	}
	if user.TokenVersion != 0 {
		t.Fatalf("expected token version 0, got %d", user.TokenVersion)
	}

	stored, err := env.store.FindUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindUserByID: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	roles, err := env.store.ListRolesForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListRolesForUser: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != domain.RoleCandidate {
		t.Fatalf("expected exactly CANDIDATE, got %+v", roles)
	}
	if roles[0].Description != domain.RoleCandidate.Description() {
		t.Fatalf("lazily created role has description %q", roles[0].Description)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ports.RegisterInput
		want error
	}{
		{"bad email", ports.RegisterInput{Email: "nope", Password: "pass123", DisplayName: "A"}, domain.ErrInvalidInput},
		{"no name", ports.RegisterInput{Email: "a@example.com", Password: "pass123"}, domain.ErrInvalidInput},
		{"short password", ports.RegisterInput{Email: "a@example.com", Password: "12345", DisplayName: "A"}, domain.ErrWeakPassword},
		{"password over 72 bytes", ports.RegisterInput{Email: "a@example.com", Password: strings.Repeat("a", 73), DisplayName: "A"}, domain.ErrPasswordTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.auth.Register(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")

	_, err := env.auth.Register(context.Background(), ports.RegisterInput{
		Email:       "ALICE@example.com",
		Password:    "another1",
		DisplayName: "Alice 2",
	})
	if !errors.Is(err, domain.ErrEmailTaken) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	res, err := env.auth.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", res)
	}
	if res.User.ID != user.ID || len(res.User.Roles) != 1 || res.User.Roles[0] != domain.RoleCandidate {
		t.Fatalf("unexpected user view: %+v", res.User)
	}
	if !res.RefreshExpiresAt.After(res.AccessExpiresAt) {
		t.Fatalf("refresh token should outlive access token")
	}

	p, err := env.codec.VerifyAccess(res.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if p.SubjectID != user.ID || p.Email != "alice@example.com" || p.TokenVersion != 0 {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice@example.com")

	_, errUnknown := env.auth.Login(ctx, "nobody@example.com", "secret123")
	_, errWrong := env.auth.Login(ctx, "alice@example.com", "wrong-password")

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v and %v", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("messages differ: %q vs %q", errUnknown, errWrong)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	login, err := env.auth.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	res, err := env.auth.RefreshWithToken(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshWithToken: %v", err)
	}
	if res.AccessToken == "" || res.User.ID != user.ID {
		t.Fatalf("unexpected refresh result: %+v", res)
	}

	if _, err := env.auth.RefreshWithToken(ctx, login.AccessToken); err == nil {
		t.Fatalf("access token must not be accepted as refresh token")
	} else if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthService_Refresh_PicksUpNewRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	login, _ := env.auth.Login(ctx, "alice@example.com", "secret123")
	if _, err := env.admin.AssignRole(ctx, "admin-id", user.ID, domain.RoleModerator); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	res, err := env.auth.RefreshWithToken(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshWithToken: %v", err)
	}
	p, err := env.codec.VerifyAccess(res.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if !p.HasRole(domain.RoleModerator) || !p.HasRole(domain.RoleCandidate) {
		t.Fatalf("expected fresh roles in refreshed token, got %v", p.Roles)
	}
}

func TestAuthService_RevokeTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")

	login, _ := env.auth.Login(ctx, "alice@example.com", "secret123")

	version, err := env.auth.RevokeTokens(ctx, user.ID)
	if err != nil {
		t.Fatalf("RevokeTokens: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	if _, err := env.auth.RefreshWithToken(ctx, login.RefreshToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked for refresh, got %v", err)
	}
	if _, err := env.auth.Authenticate(ctx, login.AccessToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked for access, got %v", err)
	}

	fresh, err := env.auth.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login after revoke: %v", err)
	}
	if _, err := env.auth.RefreshWithToken(ctx, fresh.RefreshToken); err != nil {
		t.Fatalf("new refresh token should work: %v", err)
	}

	if _, err := env.auth.RevokeTokens(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_Refresh_UnknownSubject(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Refresh(context.Background(), domain.RefreshClaims{SubjectID: "ghost"})
	if !errors.Is(err, domain.ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice@example.com")
	login, _ := env.auth.Login(ctx, "alice@example.com", "secret123")

	if err := env.auth.ChangePassword(ctx, user.ID, "wrong", "newpass1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := env.auth.ChangePassword(ctx, user.ID, "secret123", "short"); !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := env.auth.ChangePassword(ctx, user.ID, "secret123", strings.Repeat("a", 73)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a 73 byte password, got %v", err)
	}
	if err := env.auth.ChangePassword(ctx, user.ID, "secret123", "newpass1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := env.auth.Authenticate(ctx, login.AccessToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("old access token should be revoked, got %v", err)
	}
	if _, err := env.auth.Login(ctx, "alice@example.com", "secret123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should no longer work, got %v", err)
	}
	if _, err := env.auth.Login(ctx, "alice@example.com", "newpass1"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestAuthService_Authenticate_TokenErrors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Authenticate(context.Background(), "not-a-jwt")
	te, ok := domain.AsTokenError(err)
	if !ok {
		t.Fatalf("expected *TokenError, got %v", err)
	}
	if te.Kind != domain.TokenMalformed {
		t.Fatalf("expected malformed, got %s", te.Kind)
	}
}

type failingHasher struct{ err error }

func (h failingHasher) Hash(string) (string, error) { return "", h.err }
func (h failingHasher) Verify(string, string) bool  { return false }

func TestNewAuthService_HasherFailure(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("entropy exhausted")

	svc, err := NewAuthService(env.store, failingHasher{err: boom}, env.codec, env.registry, zerolog.Nop())
	if !errors.Is(err, boom) {
		t.Fatalf("expected hasher error, got %v", err)
	}
	if svc != nil {
		t.Fatal("expected no service when the hasher fails")
	}
}
