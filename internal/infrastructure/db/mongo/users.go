package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jobhub/identity/internal/core/domain"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	DisplayName  string    `bson:"display_name"`
	TokenVersion int       `bson:"token_version"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		DisplayName:  d.DisplayName,
		TokenVersion: d.TokenVersion,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	doc := userDoc{
		ID:           newID(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		DisplayName:  user.DisplayName,
		TokenVersion: user.TokenVersion,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateUserTokenVersion increments token_version with a single $inc so
// concurrent revocations never lose an increment.
func (s *Store) UpdateUserTokenVersion(ctx context.Context, userID string) (int, error) {
	return s.bumpTokenVersion(ctx, userID, bson.M{"updated_at": time.Now().UTC()})
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, passwordHash string) (int, error) {
	return s.bumpTokenVersion(ctx, userID, bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	})
}

func (s *Store) bumpTokenVersion(ctx context.Context, userID string, set bson.M) (int, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"token_version": 1},
		"$set": set,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("update token version: %w", err)
	}
	return doc.TokenVersion, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

// UpdateUserProfile relies on the unique email index to report a taken email.
func (s *Store) UpdateUserProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"email":        user.Email,
		"display_name": user.DisplayName,
		"updated_at":   user.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

// DeleteUser removes the grants and registrations before the user row. Run it
// inside WithTransaction so a failure leaves nothing half deleted.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	ctx, cancel := timeout(ctx)
	defer cancel()

	if _, err := s.userRoles.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("delete user roles: %w", err)
	}
	if _, err := s.registrations.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("delete user registrations: %w", err)
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
