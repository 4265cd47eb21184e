package identity_test

import (
	"context"
	"testing"

	identity "github.com/goliatone/go-identity"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string { return &s }

func TestUsersCreateNormalizesEmail(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := repo.Users().Create(ctx, &identity.User{
		Email:        "  Mixed.Case@Example.COM ",
		Name:         "Mixed",
		PasswordHash: identity.RandomPasswordHash(),
	})
	require.NoError(t, err)
	assert.Equal(t, "mixed.case@example.com", created.Email)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.IsActive)
}

func TestUsersCreateEmptyEmail(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	_, err := repo.Users().Create(context.Background(), &identity.User{
		Email:        "   ",
		PasswordHash: identity.RandomPasswordHash(),
	})
	require.Error(t, err)
	assert.True(t, identity.IsValidationError(err))
}

func TestUsersCreateDuplicateEmail(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, "dupe@example.com", "password123", "First")

	tests := []struct {
		name  string
		email string
	}{
		{name: "exact duplicate", email: "dupe@example.com"},
		{name: "case variant duplicate", email: "DUPE@Example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Users().Create(ctx, &identity.User{
				Email:        tt.email,
				PasswordHash: identity.RandomPasswordHash(),
			})
			require.Error(t, err)
			assert.True(t, identity.IsConflictError(err))
		})
	}
}

func TestUsersGetByEmail(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	ctx := context.Background()
	seeded := seedUser(t, repo, "finder@example.com", "password123", "Finder")

	found, err := repo.Users().GetByEmail(ctx, "FINDER@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "finder@example.com", found.Email)

	_, err = repo.Users().GetByEmail(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestUsersUpdateProfile(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	ctx := context.Background()
	seeded := seedUser(t, repo, "update@example.com", "password123", "Before")

	t.Run("partial update leaves absent fields alone", func(t *testing.T) {
		updated, err := repo.Users().UpdateProfile(ctx, seeded.ID, identity.ProfileChanges{
			Name: stringPtr("After"),
		})
		require.NoError(t, err)
		assert.Equal(t, "After", updated.Name)
		assert.Equal(t, "update@example.com", updated.Email)
		require.NotNil(t, updated.UpdatedAt)
	})

	t.Run("email update is normalized", func(t *testing.T) {
		updated, err := repo.Users().UpdateProfile(ctx, seeded.ID, identity.ProfileChanges{
			Email: stringPtr("Renamed@Example.com"),
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed@example.com", updated.Email)
	})

	t.Run("empty email rejected", func(t *testing.T) {
		_, err := repo.Users().UpdateProfile(ctx, seeded.ID, identity.ProfileChanges{
			Email: stringPtr("  "),
		})
		require.Error(t, err)
		assert.True(t, identity.IsValidationError(err))
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		_, err := repo.Users().UpdateProfile(ctx, uuid.New(), identity.ProfileChanges{
			Name: stringPtr("Ghost"),
		})
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersUpdateProfileEmailConflict(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, "holder@example.com", "password123", "Holder")
	mover := seedUser(t, repo, "mover@example.com", "password123", "Mover")

	_, err := repo.Users().UpdateProfile(ctx, mover.ID, identity.ProfileChanges{
		Email: stringPtr("holder@example.com"),
	})
	require.Error(t, err)
	assert.True(t, identity.IsConflictError(err))

	// the losing update must not have clobbered anything
	kept, err := repo.Users().GetByEmail(ctx, "mover@example.com")
	require.NoError(t, err)
	assert.Equal(t, mover.ID, kept.ID)
}

func TestUsersDeactivate(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	ctx := context.Background()
	seeded := seedUser(t, repo, "leaver@example.com", "password123", "Leaver")

	require.NoError(t, repo.Users().Deactivate(ctx, seeded.ID))

	found, err := repo.Users().GetByEmail(ctx, "leaver@example.com")
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	err = repo.Users().Deactivate(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}
