package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

const (
	collectionUsers           = "users"
	collectionRoles           = "roles"
	collectionPermissions     = "permissions"
	collectionUserRoles       = "user_roles"
	collectionRolePermissions = "role_permissions"
	collectionRegistrations   = "employer_registrations"
)

var _ ports.CredentialStore = (*Store)(nil)

// Store implements ports.CredentialStore on MongoDB. Transactions need a
// replica set or sharded cluster.
type Store struct {
	client          *mongo.Client
	users           *mongo.Collection
	roles           *mongo.Collection
	permissions     *mongo.Collection
	userRoles       *mongo.Collection
	rolePermissions *mongo.Collection
	registrations   *mongo.Collection
}

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:          client,
		users:           db.Collection(collectionUsers),
		roles:           db.Collection(collectionRoles),
		permissions:     db.Collection(collectionPermissions),
		userRoles:       db.Collection(collectionUserRoles),
		rolePermissions: db.Collection(collectionRolePermissions),
		registrations:   db.Collection(collectionRegistrations),
	}
}

// WithTransaction runs fn in a MongoDB transaction. fn receives the session
// context, so every call it makes on tx joins the transaction. The driver
// retries fn on transient transaction errors.
//
// A duplicate-key error aborts the whole MongoDB transaction, so fn cannot
// recover from one and continue writing.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.CredentialStore) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

// EnsureIndexes creates the unique indexes the store relies on for its
// conflict errors.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	onePendingPerUser := options.Index().
		SetName("user_id_pending_unique").
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"status": string(domain.RegistrationPending)})
	plan := []struct {
		col     *mongo.Collection
		indexes []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		}},
		{s.roles, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		}},
		{s.permissions, []mongo.IndexModel{
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		}},
		{s.userRoles, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		}},
		{s.rolePermissions, []mongo.IndexModel{
			{Keys: bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "permission_id", Value: 1}}},
		}},
		{s.registrations, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: onePendingPerUser},
		}},
	}

	for _, p := range plan {
		if _, err := p.col.Indexes().CreateMany(ctx, p.indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", p.col.Name(), err)
		}
	}
	return nil
}

// Ping reports whether the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}
