package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// AccessHandler serves user-role and role-permission administration.
type AccessHandler struct {
	admin ports.AccessAdminService
}

func NewAccessHandler(admin ports.AccessAdminService) *AccessHandler {
	return &AccessHandler{admin: admin}
}

// --- User roles ---

// AssignRole grants a role to a user.
//
// @Summary      Assign a role to a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      assignRoleRequest  true  "Role"
// @Success      201   {object}  domain.UserRole
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/{id}/roles [post]
func (h *AccessHandler) AssignRole(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req assignRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := domain.ParseRoleName(req.Role)
	if err != nil {
		return err
	}

	ur, err := h.admin.AssignRole(c.Request().Context(), p.SubjectID, c.Param("id"), role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ur)
}

// RemoveRole revokes a role from a user.
//
// @Summary      Remove a role from a user
// @Tags         users
// @Security     BearerAuth
// @Param        id    path  string  true  "User ID"
// @Param        role  path  string  true  "Role name"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/roles/{role} [delete]
func (h *AccessHandler) RemoveRole(c echo.Context) error {
	role, err := roleParam(c)
	if err != nil {
		return err
	}
	if err := h.admin.RemoveRole(c.Request().Context(), c.Param("id"), role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUserRoles returns the roles a user holds.
//
// @Summary      List a user's roles
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {array}   domain.Role
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/roles [get]
func (h *AccessHandler) ListUserRoles(c echo.Context) error {
	roles, err := h.admin.ListUserRoles(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return c.JSON(http.StatusOK, roles)
}

// --- Roles ---

// ListRoles returns every stored role with its permission codes.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ports.RoleWithPermissions
// @Router       /roles [get]
func (h *AccessHandler) ListRoles(c echo.Context) error {
	roles, err := h.admin.ListRoles(c.Request().Context())
	if err != nil {
		return err
	}
	if roles == nil {
		roles = []ports.RoleWithPermissions{}
	}
	return c.JSON(http.StatusOK, roles)
}

// DeleteRole removes a role that nothing references.
//
// @Summary      Delete a role
// @Tags         roles
// @Security     BearerAuth
// @Param        role  path  string  true  "Role name"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /roles/{role} [delete]
func (h *AccessHandler) DeleteRole(c echo.Context) error {
	role, err := roleParam(c)
	if err != nil {
		return err
	}
	if err := h.admin.DeleteRole(c.Request().Context(), role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignPermission grants a permission to a role.
//
// @Summary      Grant a permission to a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        role  path      string                   true  "Role name"
// @Param        body  body      assignPermissionRequest  true  "Permission code"
// @Success      201   {object}  domain.RolePermission
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /roles/{role}/permissions [post]
func (h *AccessHandler) AssignPermission(c echo.Context) error {
	role, err := roleParam(c)
	if err != nil {
		return err
	}

	var req assignPermissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rp, err := h.admin.AssignPermission(c.Request().Context(), role, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rp)
}

// RemovePermission revokes a permission from a role.
//
// @Summary      Revoke a permission from a role
// @Tags         roles
// @Security     BearerAuth
// @Param        role  path  string  true  "Role name"
// @Param        code  path  string  true  "Permission code"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /roles/{role}/permissions/{code} [delete]
func (h *AccessHandler) RemovePermission(c echo.Context) error {
	role, err := roleParam(c)
	if err != nil {
		return err
	}
	if err := h.admin.RemovePermission(c.Request().Context(), role, c.Param("code")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Permissions ---

// ListPermissions returns the permission catalogue.
//
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Permission
// @Router       /permissions [get]
func (h *AccessHandler) ListPermissions(c echo.Context) error {
	perms, err := h.admin.ListPermissions(c.Request().Context())
	if err != nil {
		return err
	}
	if perms == nil {
		perms = []domain.Permission{}
	}
	return c.JSON(http.StatusOK, perms)
}

// CreatePermission adds a permission to the catalogue.
//
// @Summary      Create a permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPermissionRequest  true  "Permission"
// @Success      201   {object}  domain.Permission
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /permissions [post]
func (h *AccessHandler) CreatePermission(c echo.Context) error {
	var req createPermissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	perm, err := h.admin.CreatePermission(c.Request().Context(), domain.Permission{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, perm)
}

// DeletePermission removes a permission no role holds.
//
// @Summary      Delete a permission
// @Tags         permissions
// @Security     BearerAuth
// @Param        code  path  string  true  "Permission code"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /permissions/{code} [delete]
func (h *AccessHandler) DeletePermission(c echo.Context) error {
	if err := h.admin.DeletePermission(c.Request().Context(), c.Param("code")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
