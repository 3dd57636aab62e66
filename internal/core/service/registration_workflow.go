package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// RegistrationWorkflow moves employer registrations from PENDING to a
// terminal state and grants the target role on approval.
type RegistrationWorkflow struct {
	store    ports.CredentialStore
	registry *RoleRegistry
	cache    ports.PermissionCache
	log      zerolog.Logger
}

// NewRegistrationWorkflow returns a workflow. cache may be nil.
func NewRegistrationWorkflow(
	store ports.CredentialStore,
	registry *RoleRegistry,
	cache ports.PermissionCache,
	log zerolog.Logger,
) *RegistrationWorkflow {
	return &RegistrationWorkflow{store: store, registry: registry, cache: cache, log: log}
}

// Submit records a PENDING registration for userID. Users that already hold
// EMPLOYER, or that have a registration awaiting a decision, are rejected
// with a conflict.
func (w *RegistrationWorkflow) Submit(ctx context.Context, userID string, info domain.CompanyInfo) (*domain.EmployerRegistration, error) {
	if strings.TrimSpace(info.CompanyName) == "" || strings.TrimSpace(info.ContactEmail) == "" {
		return nil, fmt.Errorf("%w: company name and contact email are required", domain.ErrInvalidInput)
	}

	if _, err := w.store.FindUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("submit registration: %w", err)
	}

	roles, err := w.store.ListRolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("submit registration: %w", err)
	}
	for _, r := range roles {
		if r.Name == domain.RoleEmployer {
			return nil, domain.ErrAlreadyEmployer
		}
	}

	pending, err := w.store.ListRegistrations(ctx, ports.RegistrationFilter{
		UserID: userID,
		Status: domain.RegistrationPending,
	})
	if err != nil {
		return nil, fmt.Errorf("submit registration: %w", err)
	}
	if len(pending) > 0 {
		return nil, domain.ErrRegistrationPending
	}

	now := time.Now().UTC()
	reg, err := w.store.CreateRegistration(ctx, &domain.EmployerRegistration{
		UserID:    userID,
		Company:   info,
		Status:    domain.RegistrationPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("submit registration: %w", err)
	}

	w.log.Info().
		Str("registration_id", reg.ID).
		Str("user_id", userID).
		Str("company", info.CompanyName).
		Msg("employer registration submitted")
	return reg, nil
}

// Decide applies an admin's decision. An approval writes the new status,
// resolves the target role and grants it to the applicant in one
// transaction; if the user already holds the role the existing grant is
// reused. Deciding a registration twice returns ErrRegistrationProcessed.
func (w *RegistrationWorkflow) Decide(ctx context.Context, registrationID, decidedBy string, d ports.Decision) (*ports.DecisionResult, error) {
	if d.Status != domain.RegistrationApproved && d.Status != domain.RegistrationRejected {
		return nil, domain.ErrInvalidDecision
	}
	target := d.TargetRole
	if target == "" {
		target = domain.RoleEmployer
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w %q", domain.ErrUnknownRole, target)
	}

	reg, err := w.store.FindRegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("decide registration: %w", err)
	}
	if !reg.Status.CanTransitionTo(d.Status) {
		return nil, domain.ErrRegistrationProcessed
	}

	now := time.Now().UTC()
	notes := strings.TrimSpace(d.Notes)
	if notes == "" {
		notes = d.Status.DefaultNotes()
	}
	decided := *reg
	decided.Status = d.Status
	decided.Notes = notes
	decided.ProcessedBy = decidedBy
	decided.ProcessedAt = &now
	decided.UpdatedAt = now

	result := &ports.DecisionResult{Registration: &decided}

	if d.Status == domain.RegistrationRejected {
		if err := w.store.DecideRegistration(ctx, &decided); err != nil {
			return nil, fmt.Errorf("decide registration: %w", err)
		}
		w.logDecision(&decided)
		return result, nil
	}

	err = w.store.WithTransaction(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
		if err := tx.DecideRegistration(ctx, &decided); err != nil {
			return err
		}
		roleID, err := w.registry.Bind(tx).Resolve(ctx, target)
		if err != nil {
			return err
		}

		existing, err := tx.FindUserRole(ctx, decided.UserID, roleID)
		switch {
		case err == nil:
			result.UserRole = existing
			return nil
		case !errors.Is(err, domain.ErrRoleNotAssigned):
			return err
		}

		ur, err := tx.CreateUserRole(ctx, &domain.UserRole{
			UserID:     decided.UserID,
			RoleID:     roleID,
			AssignedBy: decidedBy,
			AssignedAt: now,
		})
		if err != nil {
			return err
		}
		result.UserRole = ur
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decide registration: %w", err)
	}

	invalidateUser(ctx, w.cache, w.log, decided.UserID)
	w.logDecision(&decided)
	return result, nil
}

func (w *RegistrationWorkflow) Get(ctx context.Context, id string) (*domain.EmployerRegistration, error) {
	return w.store.FindRegistrationByID(ctx, id)
}

func (w *RegistrationWorkflow) List(ctx context.Context, filter ports.RegistrationFilter) ([]domain.EmployerRegistration, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown registration status %q", domain.ErrInvalidInput, filter.Status)
	}
	return w.store.ListRegistrations(ctx, filter)
}

func (w *RegistrationWorkflow) logDecision(r *domain.EmployerRegistration) {
	w.log.Info().
		Str("registration_id", r.ID).
		Str("user_id", r.UserID).
		Str("status", string(r.Status)).
		Str("processed_by", r.ProcessedBy).
		Msg("employer registration decided")
}

// invalidateUser drops a cached permission set. Failures only shorten the
// window in which a stale entry may be served, so they are logged.
func invalidateUser(ctx context.Context, cache ports.PermissionCache, log zerolog.Logger, userID string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateUser(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("permission cache invalidation failed")
	}
}

func invalidateAll(ctx context.Context, cache ports.PermissionCache, log zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("permission cache invalidation failed")
	}
}
