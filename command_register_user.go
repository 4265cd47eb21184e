package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// MinPasswordLength is the inclusive minimum accepted password length.
var MinPasswordLength = 6

type RegisterUserMessage struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	Staff      bool   `json:"is_staff"`
	Superuser  bool   `json:"is_superuser"`
	UseHashid  bool
	OnResponse func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewRegisterUserHandler creates a handler with sane defaults.
func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)
	if email == "" {
		return ErrEmptyEmail
	}

	if len(event.Password) < MinPasswordLength {
		return goerrors.New(
			"password must be longer than 5 characters",
			goerrors.CategoryValidation,
		).WithTextCode(TextCodePasswordTooShort)
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Email = email
		user.Name = event.Name
		user.PasswordHash = hash
		user.IsStaff = event.Staff
		user.IsSuperuser = event.Superuser
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

// RegisterSuperuserMessage creates an account with the staff and
// superuser flags raised. There is no HTTP route for this; it is an
// operator-facing operation. Superuser IDs are derived from the
// normalized email so provisioning scripts reference a stable ID.
type RegisterSuperuserMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(user *User)
}

func (e RegisterSuperuserMessage) Type() string { return "user.register_superuser" }

type RegisterSuperuserHandler struct {
	repo RepositoryManager
}

func NewRegisterSuperuserHandler(repo RepositoryManager) *RegisterSuperuserHandler {
	return &RegisterSuperuserHandler{repo: repo}
}

func (h *RegisterSuperuserHandler) Execute(ctx context.Context, event RegisterSuperuserMessage) error {
	register := NewRegisterUserHandler(h.repo)
	return register.Execute(ctx, RegisterUserMessage{
		Email:      event.Email,
		Password:   event.Password,
		Staff:      true,
		Superuser:  true,
		UseHashid:  true,
		OnResponse: event.OnResponse,
	})
}
