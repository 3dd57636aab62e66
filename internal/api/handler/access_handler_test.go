package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// stubAccessAdmin records the last call and returns err for every operation.
type stubAccessAdmin struct {
	err   error
	calls []string
	args  []string
}

func (s *stubAccessAdmin) record(name string, args ...string) {
	s.calls = append(s.calls, name)
	s.args = args
}

func (s *stubAccessAdmin) AssignRole(_ context.Context, actorID, userID string, role domain.RoleName) (*domain.UserRole, error) {
	s.record("AssignRole", actorID, userID, string(role))
	if s.err != nil {
		return nil, s.err
	}
	return &domain.UserRole{ID: "ur1", UserID: userID, RoleID: "r-" + string(role), AssignedBy: actorID}, nil
}

func (s *stubAccessAdmin) RemoveRole(_ context.Context, userID string, role domain.RoleName) error {
	s.record("RemoveRole", userID, string(role))
	return s.err
}

func (s *stubAccessAdmin) ListUserRoles(_ context.Context, userID string) ([]domain.Role, error) {
	s.record("ListUserRoles", userID)
	return nil, s.err
}

func (s *stubAccessAdmin) ListRoles(context.Context) ([]ports.RoleWithPermissions, error) {
	s.record("ListRoles")
	return []ports.RoleWithPermissions{{Role: domain.Role{ID: "r1", Name: domain.RoleAdmin}, Permissions: []string{"jobs:read"}}}, s.err
}

func (s *stubAccessAdmin) DeleteRole(_ context.Context, role domain.RoleName) error {
	s.record("DeleteRole", string(role))
	return s.err
}

func (s *stubAccessAdmin) ListPermissions(context.Context) ([]domain.Permission, error) {
	s.record("ListPermissions")
	return nil, s.err
}

func (s *stubAccessAdmin) CreatePermission(_ context.Context, p domain.Permission) (*domain.Permission, error) {
	s.record("CreatePermission", p.Name, p.Code)
	if s.err != nil {
		return nil, s.err
	}
	p.ID = "p1"
	return &p, nil
}

func (s *stubAccessAdmin) DeletePermission(_ context.Context, code string) error {
	s.record("DeletePermission", code)
	return s.err
}

func (s *stubAccessAdmin) AssignPermission(_ context.Context, role domain.RoleName, code string) (*domain.RolePermission, error) {
	s.record("AssignPermission", string(role), code)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.RolePermission{ID: "rp1", RoleID: "r-" + string(role), PermissionID: code}, nil
}

func (s *stubAccessAdmin) RemovePermission(_ context.Context, role domain.RoleName, code string) error {
	s.record("RemovePermission", string(role), code)
	return s.err
}

func TestAccessHandler_AssignRole(t *testing.T) {
	stub := &stubAccessAdmin{}
	h := NewAccessHandler(stub)

	c, rec := newContext(http.MethodPost, "/users/u1/roles", requestOpts{
		principal: adminPrincipal,
		params:    map[string]string{"id": "u1"},
		body:      `{"role":"moderator"}`,
	})
	if err := h.AssignRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	want := []string{"admin-1", "u1", "MODERATOR"}
	for i, v := range want {
		if stub.args[i] != v {
			t.Fatalf("unexpected args %v, want %v", stub.args, want)
		}
	}
}

func TestAccessHandler_AssignRole_UnknownRole(t *testing.T) {
	stub := &stubAccessAdmin{}
	h := NewAccessHandler(stub)

	c, _ := newContext(http.MethodPost, "/users/u1/roles", requestOpts{
		principal: adminPrincipal,
		params:    map[string]string{"id": "u1"},
		body:      `{"role":"OWNER"}`,
	})
	if err := h.AssignRole(c); !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("service must not be called, got %v", stub.calls)
	}
}

func TestAccessHandler_AssignRole_Duplicate(t *testing.T) {
	h := NewAccessHandler(&stubAccessAdmin{err: domain.ErrRoleAlreadyAssigned})

	c, _ := newContext(http.MethodPost, "/users/u1/roles", requestOpts{
		principal: adminPrincipal,
		params:    map[string]string{"id": "u1"},
		body:      `{"role":"EMPLOYER"}`,
	})
	if err := h.AssignRole(c); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAccessHandler_NoContentRoutes(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]string
		call   func(h *AccessHandler) func(c echo.Context) error
		want   string
	}{
		{"remove role", map[string]string{"id": "u1", "role": "employer"}, func(h *AccessHandler) func(c echo.Context) error { return h.RemoveRole }, "RemoveRole"},
		{"delete role", map[string]string{"role": "visitor"}, func(h *AccessHandler) func(c echo.Context) error { return h.DeleteRole }, "DeleteRole"},
		{"remove permission", map[string]string{"role": "admin", "code": "jobs:read"}, func(h *AccessHandler) func(c echo.Context) error { return h.RemovePermission }, "RemovePermission"},
		{"delete permission", map[string]string{"code": "jobs:read"}, func(h *AccessHandler) func(c echo.Context) error { return h.DeletePermission }, "DeletePermission"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAccessAdmin{}
			h := NewAccessHandler(stub)
			c, rec := newContext(http.MethodDelete, "/", requestOpts{principal: adminPrincipal, params: tc.params})
			if err := tc.call(h)(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			assertStatus(t, rec, http.StatusNoContent)
			if len(stub.calls) != 1 || stub.calls[0] != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, stub.calls)
			}
		})
	}
}

func TestAccessHandler_DeleteRole_InUse(t *testing.T) {
	h := NewAccessHandler(&stubAccessAdmin{err: domain.ErrRoleInUse})

	c, _ := newContext(http.MethodDelete, "/roles/EMPLOYER", requestOpts{
		principal: adminPrincipal,
		params:    map[string]string{"role": "EMPLOYER"},
	})
	if err := h.DeleteRole(c); !errors.Is(err, domain.ErrRoleInUse) {
		t.Fatalf("expected ErrRoleInUse, got %v", err)
	}
}

func TestAccessHandler_ListsRenderEmptyArrays(t *testing.T) {
	h := NewAccessHandler(&stubAccessAdmin{})

	c, rec := newContext(http.MethodGet, "/users/u1/roles", requestOpts{params: map[string]string{"id": "u1"}})
	if err := h.ListUserRoles(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "[]\n" {
		t.Fatalf("expected [], got %q", rec.Body.String())
	}

	c, rec = newContext(http.MethodGet, "/permissions", requestOpts{})
	if err := h.ListPermissions(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "[]\n" {
		t.Fatalf("expected [], got %q", rec.Body.String())
	}
}

func TestAccessHandler_ListRoles(t *testing.T) {
	h := NewAccessHandler(&stubAccessAdmin{})

	c, rec := newContext(http.MethodGet, "/roles", requestOpts{})
	if err := h.ListRoles(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []map[string]any
	decodeBody(t, rec, &resp)
	if len(resp) != 1 || resp[0]["name"] != "ADMIN" {
		t.Fatalf("unexpected roles: %+v", resp)
	}
	perms, _ := resp[0]["permissions"].([]any)
	if len(perms) != 1 || perms[0] != "jobs:read" {
		t.Fatalf("unexpected permissions: %+v", resp[0])
	}
}

func TestAccessHandler_CreatePermission(t *testing.T) {
	stub := &stubAccessAdmin{}
	h := NewAccessHandler(stub)

	c, rec := newContext(http.MethodPost, "/permissions", requestOpts{
		principal: adminPrincipal,
		body:      `{"name":"Read reports","code":"reports:read"}`,
	})
	if err := h.CreatePermission(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	c, _ = newContext(http.MethodPost, "/permissions", requestOpts{
		principal: adminPrincipal,
		body:      `{"code":"reports:read"}`,
	})
	assertHTTPError(t, h.CreatePermission(c), http.StatusBadRequest)
}

func TestAccessHandler_AssignPermission(t *testing.T) {
	stub := &stubAccessAdmin{}
	h := NewAccessHandler(stub)

	c, rec := newContext(http.MethodPost, "/roles/employer/permissions", requestOpts{
		principal: adminPrincipal,
		params:    map[string]string{"role": "employer"},
		body:      `{"code":"jobs:create"}`,
	})
	if err := h.AssignPermission(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)
	if stub.args[0] != "EMPLOYER" || stub.args[1] != "jobs:create" {
		t.Fatalf("unexpected args: %v", stub.args)
	}
}
