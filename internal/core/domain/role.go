package domain

import (
	"fmt"
	"strings"
	"time"
)

// RoleName is the closed set of roles a user can hold.
type RoleName string

const (
	RoleAdmin     RoleName = "ADMIN"
	RoleEmployer  RoleName = "EMPLOYER"
	RoleCandidate RoleName = "CANDIDATE"
	RoleModerator RoleName = "MODERATOR"
	RoleVisitor   RoleName = "VISITOR"
)

var roleDescriptions = map[RoleName]string{
	RoleAdmin:     "System administrator with full access",
	RoleEmployer:  "Employer who can post jobs and review applications",
	RoleCandidate: "Job seeker who can apply for jobs",
	RoleModerator: "Content moderator with limited administrative access",
	RoleVisitor:   "Basic visitor with limited access",
}

// AllRoles lists every role in declaration order.
func AllRoles() []RoleName {
	return []RoleName{RoleAdmin, RoleEmployer, RoleCandidate, RoleModerator, RoleVisitor}
}

// Valid reports whether r belongs to the enumeration.
func (r RoleName) Valid() bool {
	_, ok := roleDescriptions[r]
	return ok
}

// Description is the canonical description stored when the role row is created.
func (r RoleName) Description() string {
	return roleDescriptions[r]
}

// ParseRoleName converts user input to a RoleName, ignoring case and surrounding space.
func ParseRoleName(s string) (RoleName, error) {
	r := RoleName(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Role is the persisted identity of a RoleName.
type Role struct {
	ID          string    `json:"id"`
	Name        RoleName  `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission is an atomic capability identified by a unique code such as "jobs:read".
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRole grants a role to a user. The (UserID, RoleID) pair is unique.
type UserRole struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RoleID     string    `json:"role_id"`
	AssignedBy string    `json:"assigned_by,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// RolePermission grants a permission to a role. The (RoleID, PermissionID) pair is unique.
type RolePermission struct {
	ID           string    `json:"id"`
	RoleID       string    `json:"role_id"`
	PermissionID string    `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleNames extracts the names of roles.
func RoleNames(roles []Role) []RoleName {
	names := make([]RoleName, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}
