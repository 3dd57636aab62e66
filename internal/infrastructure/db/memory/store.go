// Package memory is an in-process CredentialStore. It backs tests and the
// STORE_DRIVER=memory mode, and enforces the same uniqueness and referential
// rules as the MongoDB store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

var _ ports.CredentialStore = (*Store)(nil)

type state struct {
	users           map[string]domain.User
	roles           map[string]domain.Role
	permissions     map[string]domain.Permission
	userRoles       map[string]domain.UserRole
	rolePermissions map[string]domain.RolePermission
	registrations   map[string]domain.EmployerRegistration
}

func newState() *state {
	return &state{
		users:           make(map[string]domain.User),
		roles:           make(map[string]domain.Role),
		permissions:     make(map[string]domain.Permission),
		userRoles:       make(map[string]domain.UserRole),
		rolePermissions: make(map[string]domain.RolePermission),
		registrations:   make(map[string]domain.EmployerRegistration),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.permissions {
		c.permissions[k] = v
	}
	for k, v := range s.userRoles {
		c.userRoles[k] = v
	}
	for k, v := range s.rolePermissions {
		c.rolePermissions[k] = v
	}
	for k, v := range s.registrations {
		c.registrations[k] = v
	}
	return c
}

// Store is safe for concurrent use. Every method holds a single lock, and
// WithTransaction holds it for the whole callback, so transactions are
// serialised.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

// WithTransaction runs fn against a private copy of the data and publishes
// the copy only if fn succeeds. fn must not call methods on s itself.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.CredentialStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &txStore{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.findUserByEmail(email)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.findUserByID(id)
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createUser(user)
}

func (s *Store) UpdateUserTokenVersion(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.bumpTokenVersion(userID, "")
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, passwordHash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.bumpTokenVersion(userID, passwordHash)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listUsers(), nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.updateUserProfile(user)
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleteUser(userID)
}

func (s *Store) FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.findRoleByName(name)
}

func (s *Store) CreateRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createRole(role)
}

func (s *Store) ListRoles(ctx context.Context) ([]domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listRoles(), nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleteRole(roleID)
}

func (s *Store) FindPermissionByCode(ctx context.Context, code string) (*domain.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.findPermissionByCode(code)
}

func (s *Store) CreatePermission(ctx context.Context, p *domain.Permission) (*domain.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createPermission(p)
}

func (s *Store) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listPermissions(), nil
}

func (s *Store) DeletePermission(ctx context.Context, permissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deletePermission(permissionID)
}

func (s *Store) ListPermissionCodesForRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.permissionCodesForRoles(roleIDs), nil
}

func (s *Store) CreateRolePermission(ctx context.Context, rp *domain.RolePermission) (*domain.RolePermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createRolePermission(rp)
}

func (s *Store) DeleteRolePermission(ctx context.Context, roleID, permissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleteRolePermission(roleID, permissionID)
}

func (s *Store) CreateUserRole(ctx context.Context, ur *domain.UserRole) (*domain.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createUserRole(ur)
}

func (s *Store) FindUserRole(ctx context.Context, userID, roleID string) (*domain.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.findUserRole(userID, roleID)
}

func (s *Store) DeleteUserRole(ctx context.Context, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleteUserRole(userID, roleID)
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.rolesForUser(userID), nil
}

func (s *Store) CreateRegistration(ctx context.Context, r *domain.EmployerRegistration) (*domain.EmployerRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createRegistration(r)
}

func (s *Store) FindRegistrationByID(ctx context.Context, id string) (*domain.EmployerRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.findRegistration(id)
}

func (s *Store) ListRegistrations(ctx context.Context, filter ports.RegistrationFilter) ([]domain.EmployerRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listRegistrations(filter), nil
}

func (s *Store) DecideRegistration(ctx context.Context, r *domain.EmployerRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.decideRegistration(r)
}

// ── state operations (caller holds the lock) ─────────────────────────────────

func (s *state) findUserByEmail(email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *state) findUserByID(id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *state) createUser(user *domain.User) (*domain.User, error) {
	if _, err := s.findUserByEmail(user.Email); err == nil {
		return nil, domain.ErrEmailTaken
	}
	u := *user
	u.ID = uuid.NewString()
	s.users[u.ID] = u
	return &u, nil
}

// bumpTokenVersion increments the version and, when hash is set, replaces the
// password in the same write.
func (s *state) bumpTokenVersion(userID, hash string) (int, error) {
	u, ok := s.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.TokenVersion++
	if hash != "" {
		u.PasswordHash = hash
	}
	s.users[userID] = u
	return u.TokenVersion, nil
}

func (s *state) listUsers() []domain.User {
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (s *state) updateUserProfile(user *domain.User) (*domain.User, error) {
	stored, ok := s.users[user.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if other, err := s.findUserByEmail(user.Email); err == nil && other.ID != user.ID {
		return nil, domain.ErrEmailTaken
	}
	stored.Email = user.Email
	stored.DisplayName = user.DisplayName
	stored.UpdatedAt = user.UpdatedAt
	s.users[user.ID] = stored
	return &stored, nil
}

// deleteUser cascades to the user's role grants and registrations.
func (s *state) deleteUser(userID string) error {
	if _, ok := s.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, ur := range s.userRoles {
		if ur.UserID == userID {
			delete(s.userRoles, id)
		}
	}
	for id, r := range s.registrations {
		if r.UserID == userID {
			delete(s.registrations, id)
		}
	}
	delete(s.users, userID)
	return nil
}

func (s *state) findRoleByName(name domain.RoleName) (*domain.Role, error) {
	for _, r := range s.roles {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (s *state) createRole(role *domain.Role) (*domain.Role, error) {
	if _, err := s.findRoleByName(role.Name); err == nil {
		return nil, domain.ErrRoleExists
	}
	r := *role
	r.ID = uuid.NewString()
	s.roles[r.ID] = r
	return &r, nil
}

func (s *state) listRoles() []domain.Role {
	out := make([]domain.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *state) deleteRole(roleID string) error {
	if _, ok := s.roles[roleID]; !ok {
		return domain.ErrRoleNotFound
	}
	for _, ur := range s.userRoles {
		if ur.RoleID == roleID {
			return domain.ErrRoleInUse
		}
	}
	for _, rp := range s.rolePermissions {
		if rp.RoleID == roleID {
			return domain.ErrRoleInUse
		}
	}
	delete(s.roles, roleID)
	return nil
}

func (s *state) findPermissionByCode(code string) (*domain.Permission, error) {
	for _, p := range s.permissions {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, domain.ErrPermissionNotFound
}

func (s *state) createPermission(perm *domain.Permission) (*domain.Permission, error) {
	for _, p := range s.permissions {
		if p.Code == perm.Code || p.Name == perm.Name {
			return nil, domain.ErrPermissionExists
		}
	}
	p := *perm
	p.ID = uuid.NewString()
	s.permissions[p.ID] = p
	return &p, nil
}

func (s *state) listPermissions() []domain.Permission {
	out := make([]domain.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (s *state) deletePermission(permissionID string) error {
	if _, ok := s.permissions[permissionID]; !ok {
		return domain.ErrPermissionNotFound
	}
	for _, rp := range s.rolePermissions {
		if rp.PermissionID == permissionID {
			return domain.ErrPermissionInUse
		}
	}
	delete(s.permissions, permissionID)
	return nil
}

func (s *state) permissionCodesForRoles(roleIDs []string) []string {
	wanted := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		wanted[id] = struct{}{}
	}
	seen := make(map[string]struct{})
	codes := []string{}
	for _, rp := range s.rolePermissions {
		if _, ok := wanted[rp.RoleID]; !ok {
			continue
		}
		p, ok := s.permissions[rp.PermissionID]
		if !ok {
			continue
		}
		if _, dup := seen[p.Code]; dup {
			continue
		}
		seen[p.Code] = struct{}{}
		codes = append(codes, p.Code)
	}
	sort.Strings(codes)
	return codes
}

func (s *state) createRolePermission(rp *domain.RolePermission) (*domain.RolePermission, error) {
	if _, ok := s.roles[rp.RoleID]; !ok {
		return nil, domain.ErrRoleNotFound
	}
	if _, ok := s.permissions[rp.PermissionID]; !ok {
		return nil, domain.ErrPermissionNotFound
	}
	for _, existing := range s.rolePermissions {
		if existing.RoleID == rp.RoleID && existing.PermissionID == rp.PermissionID {
			return nil, domain.ErrPermissionAlreadyAssigned
		}
	}
	c := *rp
	c.ID = uuid.NewString()
	s.rolePermissions[c.ID] = c
	return &c, nil
}

func (s *state) deleteRolePermission(roleID, permissionID string) error {
	for id, rp := range s.rolePermissions {
		if rp.RoleID == roleID && rp.PermissionID == permissionID {
			delete(s.rolePermissions, id)
			return nil
		}
	}
	return domain.ErrPermissionNotAssigned
}

func (s *state) createUserRole(ur *domain.UserRole) (*domain.UserRole, error) {
	if _, ok := s.users[ur.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if _, ok := s.roles[ur.RoleID]; !ok {
		return nil, domain.ErrRoleNotFound
	}
	if _, err := s.findUserRole(ur.UserID, ur.RoleID); err == nil {
		return nil, domain.ErrRoleAlreadyAssigned
	}
	c := *ur
	c.ID = uuid.NewString()
	s.userRoles[c.ID] = c
	return &c, nil
}

func (s *state) findUserRole(userID, roleID string) (*domain.UserRole, error) {
	for _, ur := range s.userRoles {
		if ur.UserID == userID && ur.RoleID == roleID {
			return &ur, nil
		}
	}
	return nil, domain.ErrRoleNotAssigned
}

func (s *state) deleteUserRole(userID, roleID string) error {
	for id, ur := range s.userRoles {
		if ur.UserID == userID && ur.RoleID == roleID {
			delete(s.userRoles, id)
			return nil
		}
	}
	return domain.ErrRoleNotAssigned
}

func (s *state) rolesForUser(userID string) []domain.Role {
	out := []domain.Role{}
	for _, ur := range s.userRoles {
		if ur.UserID != userID {
			continue
		}
		if r, ok := s.roles[ur.RoleID]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *state) createRegistration(r *domain.EmployerRegistration) (*domain.EmployerRegistration, error) {
	if _, ok := s.users[r.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if r.Status == domain.RegistrationPending {
		for _, existing := range s.registrations {
			if existing.UserID == r.UserID && existing.Status == domain.RegistrationPending {
				return nil, domain.ErrRegistrationPending
			}
		}
	}
	c := *r
	c.ID = uuid.NewString()
	s.registrations[c.ID] = c
	return &c, nil
}

func (s *state) findRegistration(id string) (*domain.EmployerRegistration, error) {
	r, ok := s.registrations[id]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}
	return &r, nil
}

func (s *state) listRegistrations(f ports.RegistrationFilter) []domain.EmployerRegistration {
	out := []domain.EmployerRegistration{}
	for _, r := range s.registrations {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *state) decideRegistration(r *domain.EmployerRegistration) error {
	stored, ok := s.registrations[r.ID]
	if !ok {
		return domain.ErrRegistrationNotFound
	}
	if stored.Status != domain.RegistrationPending {
		return domain.ErrRegistrationProcessed
	}
	stored.Status = r.Status
	stored.Notes = r.Notes
	stored.ProcessedBy = r.ProcessedBy
	stored.ProcessedAt = r.ProcessedAt
	stored.UpdatedAt = r.UpdatedAt
	s.registrations[r.ID] = stored
	return nil
}
