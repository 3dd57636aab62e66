package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
	"github.com/jobhub/identity/internal/infrastructure/db/memory"
)

func ptr(s string) *string { return &s }

func TestUserAdmin_CreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.users.CreateUser(ctx, "admin-1", ports.CreateUserInput{
		Email:       " Mod@Example.com ",
		Password:    "modpass1",
		DisplayName: "Mod",
		Role:        domain.RoleModerator,
	})
	require.NoError(t, err)
	assert.Equal(t, "mod@example.com", created.Email)
	assert.Zero(t, created.TokenVersion)
	assert.Empty(t, created.PasswordHash)
	assert.Equal(t, []domain.RoleName{domain.RoleModerator}, created.Roles)

	mod, err := env.store.FindRoleByName(ctx, domain.RoleModerator)
	require.NoError(t, err)
	grant, err := env.store.FindUserRole(ctx, created.ID, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", grant.AssignedBy)

	_, err = env.auth.Login(ctx, "mod@example.com", "modpass1")
	require.NoError(t, err, "created account can sign in")

	plain, err := env.users.CreateUser(ctx, "admin-1", ports.CreateUserInput{
		Email: "plain@example.com", Password: "plainpass", DisplayName: "Plain",
	})
	require.NoError(t, err)
	assert.Empty(t, plain.Roles, "no role requested, none granted")
}

func TestUserAdmin_CreateUserRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "taken@example.com")

	cases := []struct {
		name string
		in   ports.CreateUserInput
		want error
	}{
		{"duplicate email", ports.CreateUserInput{Email: "TAKEN@example.com", Password: "secret123", DisplayName: "T"}, domain.ErrEmailTaken},
		{"bad email", ports.CreateUserInput{Email: "nope", Password: "secret123", DisplayName: "T"}, domain.ErrInvalidInput},
		{"short password", ports.CreateUserInput{Email: "n@example.com", Password: "123", DisplayName: "T"}, domain.ErrWeakPassword},
		{"long password", ports.CreateUserInput{Email: "n@example.com", Password: strings.Repeat("p", 73), DisplayName: "T"}, domain.ErrPasswordTooLong},
		{"unknown role", ports.CreateUserInput{Email: "n@example.com", Password: "secret123", DisplayName: "T", Role: "OWNER"}, domain.ErrUnknownRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.users.CreateUser(ctx, "admin-1", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := env.store.FindUserByEmail(ctx, "n@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound, "rejected input leaves no row behind")
}

func TestUserAdmin_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.register(t, "bob@example.com")
	env.register(t, "alice@example.com")

	all, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice@example.com", all[0].Email)
	assert.Equal(t, []domain.RoleName{domain.RoleCandidate}, all[1].Roles)
	for _, u := range all {
		assert.Empty(t, u.PasswordHash)
	}

	got, err := env.users.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, []domain.RoleName{domain.RoleCandidate}, got.Roles)

	_, err = env.users.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserAdmin_UpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com")
	env.register(t, "bob@example.com")
	login, err := env.auth.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	updated, err := env.users.UpdateUser(ctx, alice.ID, ports.UserUpdate{
		Email:       ptr("Alicia@Example.com"),
		DisplayName: ptr("Alicia"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia@example.com", updated.Email)
	assert.Equal(t, "Alicia", updated.DisplayName)
	assert.Zero(t, updated.TokenVersion, "profile edits keep sessions")

	_, err = env.users.UpdateUser(ctx, alice.ID, ports.UserUpdate{Email: ptr("bob@example.com")})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err = env.users.UpdateUser(ctx, alice.ID, ports.UserUpdate{Password: ptr("newsecret1")})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TokenVersion)
	_, err = env.auth.Authenticate(ctx, login.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked, "password reset signs the user out")
	_, err = env.auth.Login(ctx, "alicia@example.com", "newsecret1")
	require.NoError(t, err)

	_, err = env.users.UpdateUser(ctx, alice.ID, ports.UserUpdate{DisplayName: ptr("  ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.users.UpdateUser(ctx, alice.ID, ports.UserUpdate{Password: ptr(strings.Repeat("p", 73))})
	assert.ErrorIs(t, err, domain.ErrPasswordTooLong)
	_, err = env.users.UpdateUser(ctx, alice.ID, ports.UserUpdate{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.users.UpdateUser(ctx, "ghost", ports.UserUpdate{DisplayName: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserAdmin_DeleteUserCascades(t *testing.T) {
	cache := newCountingCache()
	env := newTestEnvWithStore(t, memory.New(), cache)
	ctx := context.Background()
	user := env.register(t, "cand@example.com")
	other := env.register(t, "other@example.com")
	_, err := env.workflow.Submit(ctx, user.ID, acmeInfo())
	require.NoError(t, err)

	require.NoError(t, env.users.DeleteUser(ctx, user.ID))
	assert.Contains(t, cache.invalidated, user.ID)

	_, err = env.store.FindUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	roles, err := env.store.ListRolesForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
	regs, err := env.store.ListRegistrations(ctx, ports.RegistrationFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Empty(t, regs)

	roles, err = env.store.ListRolesForUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 1, "other users keep their grants")

	assert.ErrorIs(t, env.users.DeleteUser(ctx, user.ID), domain.ErrUserNotFound)
}
