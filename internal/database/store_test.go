package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverFor(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"postgres://u:p@localhost:5432/shop?sslmode=disable", DriverPostgres, false},
		{"postgresql://localhost/shop", DriverPostgres, false},
		{"mongodb://localhost:27017", DriverMongo, false},
		{"mongodb+srv://cluster.example.net", DriverMongo, false},
		{"memory://", DriverMemory, false},
		{"mysql://localhost", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			got, err := DriverFor(tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDriverFor_UnsupportedIsSentinel(t *testing.T) {
	_, err := DriverFor("redis://localhost")
	assert.True(t, errors.Is(err, ErrUnsupportedDatabase))
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "memory://", "ignored")
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.Equal(t, DriverMemory, s.Driver)
	require.NotNil(t, s.Users)
	assert.NoError(t, s.Migrate(ctx))
	assert.NoError(t, s.Ping(ctx))

	u, err := s.Users.Create(ctx, "Ava", "ava@x.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
}

func TestMigrationsEmbedded(t *testing.T) {
	data, err := fs.ReadFile(migrations, "migrations/00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "UNIQUE (email)")
}

func TestRunMigrations_UsesEmbeddedDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, "migrations", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err = RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations")
}
