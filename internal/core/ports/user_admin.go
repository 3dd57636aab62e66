package ports

import (
	"context"

	"github.com/jobhub/identity/internal/core/domain"
)

// UserDetail is a user together with the roles it holds.
type UserDetail struct {
	domain.User
	Roles []domain.RoleName `json:"roles"`
}

// CreateUserInput is an administrator-created account. Role is optional.
type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        domain.RoleName
}

// UserUpdate carries optional changes. Nil fields are left untouched.
type UserUpdate struct {
	Email       *string
	DisplayName *string
	Password    *string
}

// UserAdminService manages user accounts on behalf of an administrator.
type UserAdminService interface {
	CreateUser(ctx context.Context, actorID string, in CreateUserInput) (*UserDetail, error)
	ListUsers(ctx context.Context) ([]UserDetail, error)
	GetUser(ctx context.Context, userID string) (*UserDetail, error)
	UpdateUser(ctx context.Context, userID string, upd UserUpdate) (*UserDetail, error)
	DeleteUser(ctx context.Context, userID string) error
}
