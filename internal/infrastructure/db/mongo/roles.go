package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jobhub/identity/internal/core/domain"
)

type roleDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d *roleDoc) toDomain() domain.Role {
	return domain.Role{
		ID:          d.ID,
		Name:        domain.RoleName(d.Name),
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type permissionDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Code        string    `bson:"code"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d *permissionDoc) toDomain() domain.Permission {
	return domain.Permission{
		ID:          d.ID,
		Name:        d.Name,
		Code:        d.Code,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type userRoleDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	RoleID     string    `bson:"role_id"`
	AssignedBy string    `bson:"assigned_by,omitempty"`
	AssignedAt time.Time `bson:"assigned_at"`
}

func (d *userRoleDoc) toDomain() *domain.UserRole {
	return &domain.UserRole{
		ID:         d.ID,
		UserID:     d.UserID,
		RoleID:     d.RoleID,
		AssignedBy: d.AssignedBy,
		AssignedAt: d.AssignedAt.UTC(),
	}
}

type rolePermissionDoc struct {
	ID           string    `bson:"_id"`
	RoleID       string    `bson:"role_id"`
	PermissionID string    `bson:"permission_id"`
	CreatedAt    time.Time `bson:"created_at"`
}

// ── roles ────────────────────────────────────────────────────────────────────

func (s *Store) FindRoleByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	var doc roleDoc
	if err := s.roles.FindOne(ctx, bson.M{"name": string(name)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	r := doc.toDomain()
	return &r, nil
}

func (s *Store) CreateRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	doc := roleDoc{
		ID:          newID(),
		Name:        string(role.Name),
		Description: role.Description,
		CreatedAt:   role.CreatedAt,
	}
	if _, err := s.roles.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	r := doc.toDomain()
	return &r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.findRoles(ctx, bson.M{})
}

func (s *Store) findRoles(ctx context.Context, filter bson.M) ([]domain.Role, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	cur, err := s.roles.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	var docs []roleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	out := make([]domain.Role, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// DeleteRole refuses to delete a role that is still referenced. The
// reference check and the delete are not atomic outside a transaction.
func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	ctx, cancel := timeout(ctx)
	defer cancel()

	for _, col := range []*mongo.Collection{s.userRoles, s.rolePermissions} {
		n, err := col.CountDocuments(ctx, bson.M{"role_id": roleID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("count role references: %w", err)
		}
		if n > 0 {
			return domain.ErrRoleInUse
		}
	}

	res, err := s.roles.DeleteOne(ctx, bson.M{"_id": roleID})
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// ── permissions ──────────────────────────────────────────────────────────────

func (s *Store) FindPermissionByCode(ctx context.Context, code string) (*domain.Permission, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	var doc permissionDoc
	if err := s.permissions.FindOne(ctx, bson.M{"code": code}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("find permission: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (s *Store) CreatePermission(ctx context.Context, p *domain.Permission) (*domain.Permission, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	doc := permissionDoc{
		ID:          newID(),
		Name:        p.Name,
		Code:        p.Code,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
	if _, err := s.permissions.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrPermissionExists
		}
		return nil, fmt.Errorf("insert permission: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	cur, err := s.permissions.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find permissions: %w", err)
	}
	var docs []permissionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	out := make([]domain.Permission, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (s *Store) DeletePermission(ctx context.Context, permissionID string) error {
	ctx, cancel := timeout(ctx)
	defer cancel()

	n, err := s.rolePermissions.CountDocuments(ctx, bson.M{"permission_id": permissionID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count permission references: %w", err)
	}
	if n > 0 {
		return domain.ErrPermissionInUse
	}

	res, err := s.permissions.DeleteOne(ctx, bson.M{"_id": permissionID})
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPermissionNotFound
	}
	return nil
}

// ListPermissionCodesForRoles joins role_permissions to permissions with a
// $lookup and returns the distinct codes.
func (s *Store) ListPermissionCodesForRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return []string{}, nil
	}
	ctx, cancel := timeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role_id": bson.M{"$in": roleIDs}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionPermissions,
			"localField":   "permission_id",
			"foreignField": "_id",
			"as":           "permission",
		}}},
		{{Key: "$unwind", Value: "$permission"}},
		{{Key: "$group", Value: bson.M{"_id": "$permission.code"}}},
	}
	cur, err := s.rolePermissions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate permission codes: %w", err)
	}
	var rows []struct {
		Code string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode permission codes: %w", err)
	}

	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, r.Code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *Store) CreateRolePermission(ctx context.Context, rp *domain.RolePermission) (*domain.RolePermission, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	doc := rolePermissionDoc{
		ID:           newID(),
		RoleID:       rp.RoleID,
		PermissionID: rp.PermissionID,
		CreatedAt:    rp.CreatedAt,
	}
	if _, err := s.rolePermissions.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrPermissionAlreadyAssigned
		}
		return nil, fmt.Errorf("insert role permission: %w", err)
	}
	return &domain.RolePermission{
		ID:           doc.ID,
		RoleID:       doc.RoleID,
		PermissionID: doc.PermissionID,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (s *Store) DeleteRolePermission(ctx context.Context, roleID, permissionID string) error {
	ctx, cancel := timeout(ctx)
	defer cancel()

	res, err := s.rolePermissions.DeleteOne(ctx, bson.M{"role_id": roleID, "permission_id": permissionID})
	if err != nil {
		return fmt.Errorf("delete role permission: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPermissionNotAssigned
	}
	return nil
}

// ── user roles ───────────────────────────────────────────────────────────────

func (s *Store) CreateUserRole(ctx context.Context, ur *domain.UserRole) (*domain.UserRole, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	doc := userRoleDoc{
		ID:         newID(),
		UserID:     ur.UserID,
		RoleID:     ur.RoleID,
		AssignedBy: ur.AssignedBy,
		AssignedAt: ur.AssignedAt,
	}
	if _, err := s.userRoles.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleAlreadyAssigned
		}
		return nil, fmt.Errorf("insert user role: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) FindUserRole(ctx context.Context, userID, roleID string) (*domain.UserRole, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	var doc userRoleDoc
	if err := s.userRoles.FindOne(ctx, bson.M{"user_id": userID, "role_id": roleID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotAssigned
		}
		return nil, fmt.Errorf("find user role: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) DeleteUserRole(ctx context.Context, userID, roleID string) error {
	ctx, cancel := timeout(ctx)
	defer cancel()

	res, err := s.userRoles.DeleteOne(ctx, bson.M{"user_id": userID, "role_id": roleID})
	if err != nil {
		return fmt.Errorf("delete user role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotAssigned
	}
	return nil
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	findCtx, cancel := timeout(ctx)
	defer cancel()

	cur, err := s.userRoles.Find(findCtx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find user roles: %w", err)
	}
	var grants []userRoleDoc
	if err := cur.All(findCtx, &grants); err != nil {
		return nil, fmt.Errorf("decode user roles: %w", err)
	}
	if len(grants) == 0 {
		return []domain.Role{}, nil
	}

	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.RoleID)
	}
	return s.findRoles(ctx, bson.M{"_id": bson.M{"$in": ids}})
}
