package memory

import (
	"context"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// txStore operates on the private copy of a running transaction. The
// enclosing Store already holds the lock.
type txStore struct {
	st *state
}

var _ ports.CredentialStore = (*txStore)(nil)

// WithTransaction joins the running transaction.
func (t *txStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.CredentialStore) error) error {
	return fn(ctx, t)
}

func (t *txStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return t.st.findUserByEmail(email)
}

func (t *txStore) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	return t.st.findUserByID(id)
}

func (t *txStore) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	return t.st.createUser(user)
}

func (t *txStore) UpdateUserTokenVersion(_ context.Context, userID string) (int, error) {
	return t.st.bumpTokenVersion(userID, "")
}

func (t *txStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) (int, error) {
	return t.st.bumpTokenVersion(userID, passwordHash)
}

func (t *txStore) ListUsers(_ context.Context) ([]domain.User, error) {
	return t.st.listUsers(), nil
}

func (t *txStore) UpdateUserProfile(_ context.Context, user *domain.User) (*domain.User, error) {
	return t.st.updateUserProfile(user)
}

func (t *txStore) DeleteUser(_ context.Context, userID string) error {
	return t.st.deleteUser(userID)
}

func (t *txStore) FindRoleByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	return t.st.findRoleByName(name)
}

func (t *txStore) CreateRole(_ context.Context, role *domain.Role) (*domain.Role, error) {
	return t.st.createRole(role)
}

func (t *txStore) ListRoles(_ context.Context) ([]domain.Role, error) {
	return t.st.listRoles(), nil
}

func (t *txStore) DeleteRole(_ context.Context, roleID string) error {
	return t.st.deleteRole(roleID)
}

func (t *txStore) FindPermissionByCode(_ context.Context, code string) (*domain.Permission, error) {
	return t.st.findPermissionByCode(code)
}

func (t *txStore) CreatePermission(_ context.Context, p *domain.Permission) (*domain.Permission, error) {
	return t.st.createPermission(p)
}

func (t *txStore) ListPermissions(_ context.Context) ([]domain.Permission, error) {
	return t.st.listPermissions(), nil
}

func (t *txStore) DeletePermission(_ context.Context, permissionID string) error {
	return t.st.deletePermission(permissionID)
}

func (t *txStore) ListPermissionCodesForRoles(_ context.Context, roleIDs []string) ([]string, error) {
	return t.st.permissionCodesForRoles(roleIDs), nil
}

func (t *txStore) CreateRolePermission(_ context.Context, rp *domain.RolePermission) (*domain.RolePermission, error) {
	return t.st.createRolePermission(rp)
}

func (t *txStore) DeleteRolePermission(_ context.Context, roleID, permissionID string) error {
	return t.st.deleteRolePermission(roleID, permissionID)
}

func (t *txStore) CreateUserRole(_ context.Context, ur *domain.UserRole) (*domain.UserRole, error) {
	return t.st.createUserRole(ur)
}

func (t *txStore) FindUserRole(_ context.Context, userID, roleID string) (*domain.UserRole, error) {
	return t.st.findUserRole(userID, roleID)
}

func (t *txStore) DeleteUserRole(_ context.Context, userID, roleID string) error {
	return t.st.deleteUserRole(userID, roleID)
}

func (t *txStore) ListRolesForUser(_ context.Context, userID string) ([]domain.Role, error) {
	return t.st.rolesForUser(userID), nil
}

func (t *txStore) CreateRegistration(_ context.Context, r *domain.EmployerRegistration) (*domain.EmployerRegistration, error) {
	return t.st.createRegistration(r)
}

func (t *txStore) FindRegistrationByID(_ context.Context, id string) (*domain.EmployerRegistration, error) {
	return t.st.findRegistration(id)
}

func (t *txStore) ListRegistrations(_ context.Context, filter ports.RegistrationFilter) ([]domain.EmployerRegistration, error) {
	return t.st.listRegistrations(filter), nil
}

func (t *txStore) DecideRegistration(_ context.Context, r *domain.EmployerRegistration) error {
	return t.st.decideRegistration(r)
}
