package identity_test

import (
	"context"
	"database/sql"
	"testing"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupIdentityDB(t *testing.T) (identity.RepositoryManager, *bun.DB, func()) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, identity.ApplyMigrations(context.Background(), bunDB))

	cleanup := func() {
		_ = bunDB.Close()
	}

	return identity.NewRepositoryManager(bunDB), bunDB, cleanup
}

func seedUser(t *testing.T, repo identity.RepositoryManager, email, password, name string) *identity.User {
	t.Helper()

	hash, err := identity.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Create(context.Background(), &identity.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return user
}
