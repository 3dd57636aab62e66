package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// RoleRegistry resolves role names to stored role ids, creating the role row
// the first time a name is needed.
//
// Concurrent creators are tolerated: in-process callers are collapsed with a
// singleflight group, and a unique-constraint conflict from another process is
// resolved by reading the row the winner created.
type RoleRegistry struct {
	store ports.RoleStore
	group *singleflight.Group
	log   zerolog.Logger
}

// NewRoleRegistry returns a registry backed by store.
func NewRoleRegistry(store ports.RoleStore, log zerolog.Logger) *RoleRegistry {
	return &RoleRegistry{store: store, group: &singleflight.Group{}, log: log}
}

// Bind returns a registry that reads and writes through store, typically a
// transaction handle. Bound registries do not share the singleflight group,
// since a result produced inside one transaction is invisible to others.
func (r *RoleRegistry) Bind(store ports.RoleStore) *RoleRegistry {
	return &RoleRegistry{store: store, log: r.log}
}

// Resolve returns the id of the role called name.
func (r *RoleRegistry) Resolve(ctx context.Context, name domain.RoleName) (string, error) {
	if !name.Valid() {
		return "", fmt.Errorf("resolve role: %w %q", domain.ErrUnknownRole, name)
	}
	if r.group == nil {
		return r.resolve(ctx, name)
	}
	id, err, _ := r.group.Do(string(name), func() (any, error) {
		return r.resolve(ctx, name)
	})
	if err != nil {
		return "", err
	}
	return id.(string), nil
}

func (r *RoleRegistry) resolve(ctx context.Context, name domain.RoleName) (string, error) {
	role, err := r.store.FindRoleByName(ctx, name)
	if err == nil {
		return role.ID, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		return "", fmt.Errorf("resolve role %s: %w", name, err)
	}

	created, err := r.store.CreateRole(ctx, &domain.Role{
		Name:        name,
		Description: name.Description(),
		CreatedAt:   time.Now().UTC(),
	})
	switch {
	case err == nil:
		r.log.Info().Str("role", string(name)).Str("role_id", created.ID).Msg("role created")
		return created.ID, nil
	case errors.Is(err, domain.ErrRoleExists):
		// Lost the race to another creator.
		role, err = r.store.FindRoleByName(ctx, name)
		if err != nil {
			return "", fmt.Errorf("resolve role %s after conflict: %w", name, err)
		}
		return role.ID, nil
	default:
		return "", fmt.Errorf("create role %s: %w", name, err)
	}
}
