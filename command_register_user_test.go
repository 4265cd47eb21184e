package identity_test

import (
	"context"
	"testing"

	identity "github.com/goliatone/go-identity"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserHandler(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	handler := identity.NewRegisterUserHandler(repo)

	var created *identity.User
	err := handler.Execute(context.Background(), identity.RegisterUserMessage{
		Email:    "New.User@Example.com",
		Name:     "New User",
		Password: "password123",
		OnResponse: func(user *identity.User) {
			created = user
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "new.user@example.com", created.Email)
	assert.Equal(t, "New User", created.Name)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsStaff)
	assert.False(t, created.IsSuperuser)

	assert.NotEqual(t, "password123", created.PasswordHash)
	assert.NoError(t, identity.ComparePasswordAndHash("password123", created.PasswordHash))
}

func TestRegisterUserHandlerValidation(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	handler := identity.NewRegisterUserHandler(repo)

	tests := []struct {
		name    string
		message identity.RegisterUserMessage
	}{
		{
			name: "empty email",
			message: identity.RegisterUserMessage{
				Email:    "   ",
				Password: "password123",
			},
		},
		{
			name: "short password",
			message: identity.RegisterUserMessage{
				Email:    "short@example.com",
				Password: "12345",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.Execute(context.Background(), tt.message)
			require.Error(t, err)
			assert.True(t, identity.IsValidationError(err))
		})
	}

	// six characters is the shortest password we accept
	err := handler.Execute(context.Background(), identity.RegisterUserMessage{
		Email:    "short@example.com",
		Password: "123456",
	})
	assert.NoError(t, err)
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	handler := identity.NewRegisterUserHandler(repo)

	err := handler.Execute(context.Background(), identity.RegisterUserMessage{
		Email:    "taken@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	err = handler.Execute(context.Background(), identity.RegisterUserMessage{
		Email:    "Taken@Example.com",
		Password: "otherpassword",
	})
	require.Error(t, err)
	assert.True(t, identity.IsConflictError(err))
}

func TestRegisterUserHandlerCancelledContext(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	handler := identity.NewRegisterUserHandler(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, identity.RegisterUserMessage{
		Email:    "late@example.com",
		Password: "password123",
	})
	assert.Error(t, err)
}

func TestRegisterSuperuserHandler(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	handler := identity.NewRegisterSuperuserHandler(repo)

	var created *identity.User
	err := handler.Execute(context.Background(), identity.RegisterSuperuserMessage{
		Email:    "root@example.com",
		Password: "password123",
		OnResponse: func(user *identity.User) {
			created = user
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.True(t, created.IsStaff)
	assert.True(t, created.IsSuperuser)
	assert.True(t, created.IsActive)

	// operator accounts get an ID derived from the normalized email
	want, err := hashid.NewUUID("root@example.com")
	require.NoError(t, err)
	assert.Equal(t, want, created.ID)
}

func TestRegisterUserHandlerHashidOptIn(t *testing.T) {
	repo, _, cleanup := setupIdentityDB(t)
	defer cleanup()

	handler := identity.NewRegisterUserHandler(repo)

	var created *identity.User
	err := handler.Execute(context.Background(), identity.RegisterUserMessage{
		Email:     "Stable@Example.com",
		Password:  "password123",
		UseHashid: true,
		OnResponse: func(user *identity.User) {
			created = user
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	want, err := hashid.NewUUID("stable@example.com")
	require.NoError(t, err)
	assert.Equal(t, want, created.ID)
}

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "user.register", identity.RegisterUserMessage{}.Type())
	assert.Equal(t, "user.register_superuser", identity.RegisterSuperuserMessage{}.Type())
	assert.Equal(t, "user.update_profile", identity.UpdateProfileMessage{}.Type())
}
