package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"storefront-be/internal/entities"
)

// UsersCollection is the Mongo collection holding user documents
const UsersCollection = "users"

type mongoUser struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func (m *mongoUser) entity() *entities.User {
	return &entities.User{
		ID:           m.ID.Hex(),
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type mongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository creates a user repository backed by a MongoDB collection.
// EnsureUserIndexes must have run against the collection for email uniqueness to hold.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{users: db.Collection(UsersCollection)}
}

// EnsureUserIndexes creates the unique email index
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	return nil
}

// Create inserts a new user document
func (r *mongoUserRepository) Create(ctx context.Context, name, email, passwordHash string) (*entities.User, error) {
	now := time.Now().UTC()
	doc := mongoUser{
		ID:           bson.NewObjectID(),
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return doc.entity(), nil
}

// FindByEmail finds a user by email
func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var doc mongoUser
	err := r.users.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.entity(), nil
}

// FindByID finds a user by ObjectID hex, excluding the password hash
func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var doc mongoUser
	opts := options.FindOne().SetProjection(bson.M{"password_hash": 0})
	err = r.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.entity(), nil
}
