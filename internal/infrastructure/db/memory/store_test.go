package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

func seedUserAndRole(t *testing.T, s *Store) (*domain.User, *domain.Role) {
	t.Helper()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, &domain.User{Email: "ana@example.com", DisplayName: "Ana"})
	require.NoError(t, err)
	r, err := s.CreateRole(ctx, &domain.Role{Name: domain.RoleCandidate})
	require.NoError(t, err)
	return u, r
}

func TestStore_UniqueConstraints(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, r := seedUserAndRole(t, s)

	_, err := s.CreateUser(ctx, &domain.User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = s.CreateRole(ctx, &domain.Role{Name: domain.RoleCandidate})
	assert.ErrorIs(t, err, domain.ErrRoleExists)

	_, err = s.CreateUserRole(ctx, &domain.UserRole{UserID: u.ID, RoleID: r.ID})
	require.NoError(t, err)
	_, err = s.CreateUserRole(ctx, &domain.UserRole{UserID: u.ID, RoleID: r.ID})
	assert.ErrorIs(t, err, domain.ErrRoleAlreadyAssigned)

	roles, err := s.ListRolesForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	_, err = s.CreatePermission(ctx, &domain.Permission{Name: "Read Jobs", Code: "jobs:read"})
	require.NoError(t, err)
	_, err = s.CreatePermission(ctx, &domain.Permission{Name: "Other", Code: "jobs:read"})
	assert.ErrorIs(t, err, domain.ErrPermissionExists)
	_, err = s.CreatePermission(ctx, &domain.Permission{Name: "Read Jobs", Code: "jobs:list"})
	assert.ErrorIs(t, err, domain.ErrPermissionExists)
}

func TestStore_TokenVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, _ := seedUserAndRole(t, s)
	assert.Equal(t, 0, u.TokenVersion)

	v, err := s.UpdateUserTokenVersion(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = s.UpdateUserPassword(ctx, u.ID, "new-hash")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	got, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, 2, got.TokenVersion)

	_, err = s.UpdateUserTokenVersion(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestStore_DeleteRejectsReferencedRows(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, r := seedUserAndRole(t, s)
	p, err := s.CreatePermission(ctx, &domain.Permission{Name: "Read Jobs", Code: "jobs:read"})
	require.NoError(t, err)

	_, err = s.CreateRolePermission(ctx, &domain.RolePermission{RoleID: r.ID, PermissionID: p.ID})
	require.NoError(t, err)
	_, err = s.CreateUserRole(ctx, &domain.UserRole{UserID: u.ID, RoleID: r.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeletePermission(ctx, p.ID), domain.ErrPermissionInUse)
	assert.ErrorIs(t, s.DeleteRole(ctx, r.ID), domain.ErrRoleInUse)

	require.NoError(t, s.DeleteRolePermission(ctx, r.ID, p.ID))
	require.NoError(t, s.DeleteUserRole(ctx, u.ID, r.ID))
	assert.ErrorIs(t, s.DeleteUserRole(ctx, u.ID, r.ID), domain.ErrRoleNotAssigned)

	assert.NoError(t, s.DeletePermission(ctx, p.ID))
	assert.NoError(t, s.DeleteRole(ctx, r.ID))
}

func TestStore_PermissionCodesAreDistinct(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, _ := s.CreateRole(ctx, &domain.Role{Name: domain.RoleEmployer})
	b, _ := s.CreateRole(ctx, &domain.Role{Name: domain.RoleVisitor})
	p, _ := s.CreatePermission(ctx, &domain.Permission{Name: "Read Jobs", Code: "jobs:read"})
	q, _ := s.CreatePermission(ctx, &domain.Permission{Name: "Create Jobs", Code: "jobs:create"})

	for _, rp := range []domain.RolePermission{
		{RoleID: a.ID, PermissionID: p.ID},
		{RoleID: a.ID, PermissionID: q.ID},
		{RoleID: b.ID, PermissionID: p.ID},
	} {
		_, err := s.CreateRolePermission(ctx, &rp)
		require.NoError(t, err)
	}

	codes, err := s.ListPermissionCodesForRoles(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs:create", "jobs:read"}, codes)

	codes, err = s.ListPermissionCodesForRoles(ctx, []string{b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs:read"}, codes)
}

func TestStore_WithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commit publishes writes", func(t *testing.T) {
		s := New()
		err := s.WithTransaction(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
			_, err := tx.CreateUser(ctx, &domain.User{Email: "ana@example.com"})
			return err
		})
		require.NoError(t, err)
		_, err = s.FindUserByEmail(ctx, "ana@example.com")
		assert.NoError(t, err)
	})

	t.Run("error discards writes", func(t *testing.T) {
		s := New()
		boom := errors.New("boom")
		err := s.WithTransaction(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
			if _, err := tx.CreateUser(ctx, &domain.User{Email: "ana@example.com"}); err != nil {
				return err
			}
			if _, err := tx.CreateRole(ctx, &domain.Role{Name: domain.RoleCandidate}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.FindUserByEmail(ctx, "ana@example.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		_, err = s.FindRoleByName(ctx, domain.RoleCandidate)
		assert.ErrorIs(t, err, domain.ErrRoleNotFound)
	})
}

func TestStore_Registrations(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, _ := seedUserAndRole(t, s)

	older, err := s.CreateRegistration(ctx, &domain.EmployerRegistration{
		UserID: u.ID, Status: domain.RegistrationRejected, CreatedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	newer, err := s.CreateRegistration(ctx, &domain.EmployerRegistration{
		UserID: u.ID, Status: domain.RegistrationPending, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	all, err := s.ListRegistrations(ctx, ports.RegistrationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	pending, err := s.ListRegistrations(ctx, ports.RegistrationFilter{Status: domain.RegistrationPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	now := time.Now()
	decided := *newer
	decided.Status = domain.RegistrationApproved
	decided.ProcessedBy = "admin"
	decided.ProcessedAt = &now
	require.NoError(t, s.DecideRegistration(ctx, &decided))
	assert.ErrorIs(t, s.DecideRegistration(ctx, &decided), domain.ErrRegistrationProcessed)

	decided.ID = older.ID
	assert.ErrorIs(t, s.DecideRegistration(ctx, &decided), domain.ErrRegistrationProcessed)

	got, err := s.FindRegistrationByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationApproved, got.Status)
	assert.Equal(t, "admin", got.ProcessedBy)
}

func TestStore_OnePendingRegistrationPerUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, _ := seedUserAndRole(t, s)

	const submitters = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateRegistration(ctx, &domain.EmployerRegistration{
				UserID: u.ID, Status: domain.RegistrationPending, CreatedAt: time.Now(),
			})
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrRegistrationPending)
				return
			}
			mu.Lock()
			created++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)

	// Decided rows do not block a new application.
	_, err := s.CreateRegistration(ctx, &domain.EmployerRegistration{UserID: u.ID, Status: domain.RegistrationRejected})
	require.NoError(t, err)
}

func TestStore_UserAdministration(t *testing.T) {
	s := New()
	ctx := context.Background()
	ana, role := seedUserAndRole(t, s)
	bob, err := s.CreateUser(ctx, &domain.User{Email: "bob@example.com", DisplayName: "Bob"})
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ana@example.com", users[0].Email)

	_, err = s.UpdateUserProfile(ctx, &domain.User{ID: bob.ID, Email: "ana@example.com", DisplayName: "Bob"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	renamed, err := s.UpdateUserProfile(ctx, &domain.User{ID: bob.ID, Email: "bob@example.com", DisplayName: "Robert"})
	require.NoError(t, err)
	assert.Equal(t, "Robert", renamed.DisplayName)
	_, err = s.UpdateUserProfile(ctx, &domain.User{ID: "ghost", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.CreateUserRole(ctx, &domain.UserRole{UserID: ana.ID, RoleID: role.ID})
	require.NoError(t, err)
	_, err = s.CreateRegistration(ctx, &domain.EmployerRegistration{UserID: ana.ID, Status: domain.RegistrationPending})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, ana.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, ana.ID), domain.ErrUserNotFound)
	_, err = s.FindUserRole(ctx, ana.ID, role.ID)
	assert.ErrorIs(t, err, domain.ErrRoleNotAssigned)
	regs, err := s.ListRegistrations(ctx, ports.RegistrationFilter{UserID: ana.ID})
	require.NoError(t, err)
	assert.Empty(t, regs)
	assert.NoError(t, s.DeleteRole(ctx, role.ID), "role is no longer referenced")
}
