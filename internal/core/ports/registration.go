package ports

import (
	"context"

	"github.com/jobhub/identity/internal/core/domain"
)

// Decision is an admin's verdict on a pending registration.
type Decision struct {
	Status     domain.RegistrationStatus
	TargetRole domain.RoleName
	Notes      string
}

// DecisionResult is the outcome of Decide. UserRole is nil for rejections.
type DecisionResult struct {
	Registration *domain.EmployerRegistration
	UserRole     *domain.UserRole
}

// RegistrationWorkflow moves employer registrations through PENDING -> APPROVED/REJECTED.
type RegistrationWorkflow interface {
	Submit(ctx context.Context, userID string, info domain.CompanyInfo) (*domain.EmployerRegistration, error)
	Decide(ctx context.Context, registrationID, decidedBy string, d Decision) (*DecisionResult, error)
	Get(ctx context.Context, id string) (*domain.EmployerRegistration, error)
	List(ctx context.Context, filter RegistrationFilter) ([]domain.EmployerRegistration, error)
}
