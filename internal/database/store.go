package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"storefront-be/internal/repository"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// ErrUnsupportedDatabase is returned for a DATABASE_URL scheme no driver handles
var ErrUnsupportedDatabase = errors.New("unsupported database url scheme")

// Store owns the credential store connection and the repository built on it.
type Store struct {
	Driver string
	Users  repository.UserRepository

	sqlDB   *sql.DB
	mongoDB *mongo.Database
}

// DriverFor maps a connection string to the driver that serves it
func DriverFor(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	case "memory":
		return DriverMemory, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDatabase, u.Scheme)
}

// Open connects to the store named by databaseURL. It fails if the store is unreachable.
// dbName selects the Mongo database and is ignored by the other drivers.
func Open(ctx context.Context, databaseURL, dbName string) (*Store, error) {
	driver, err := DriverFor(databaseURL)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverPostgres:
		db, err := NewConnection(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return &Store{Driver: driver, Users: repository.NewPostgresUserRepository(db), sqlDB: db}, nil
	case DriverMongo:
		client, err := NewMongoConnection(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		mdb := client.Database(dbName)
		return &Store{Driver: driver, Users: repository.NewMongoUserRepository(mdb), mongoDB: mdb}, nil
	default:
		return &Store{Driver: driver, Users: repository.NewMemoryUserRepository()}, nil
	}
}

// Migrate brings the schema up to date: goose migrations on PostgreSQL,
// the unique email index on MongoDB.
func (s *Store) Migrate(ctx context.Context) error {
	switch {
	case s.sqlDB != nil:
		return RunMigrations(ctx, s.sqlDB)
	case s.mongoDB != nil:
		return repository.EnsureUserIndexes(ctx, s.mongoDB)
	}
	return nil
}

// Ping checks the store is still reachable
func (s *Store) Ping(ctx context.Context) error {
	switch {
	case s.sqlDB != nil:
		return s.sqlDB.PingContext(ctx)
	case s.mongoDB != nil:
		return s.mongoDB.Client().Ping(ctx, nil)
	}
	return nil
}

// Close releases the underlying connection
func (s *Store) Close(ctx context.Context) error {
	switch {
	case s.sqlDB != nil:
		return s.sqlDB.Close()
	case s.mongoDB != nil:
		return s.mongoDB.Client().Disconnect(ctx)
	}
	return nil
}
