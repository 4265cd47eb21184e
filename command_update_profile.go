package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateProfileMessage applies a partial update to the caller's own
// record. Only non-nil fields are touched; a password change is
// re-hashed before it is persisted.
type UpdateProfileMessage struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       *string   `json:"name,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Password   *string   `json:"password,omitempty"`
	OnResponse func(user *User)
}

func (e UpdateProfileMessage) Type() string { return "user.update_profile" }

type UpdateProfileHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewUpdateProfileHandler creates a handler with sane defaults.
func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	if event.UserID == uuid.Nil {
		return ErrIdentityNotFound
	}

	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	changes := ProfileChanges{
		Name: event.Name,
	}

	if event.Email != nil {
		normalized := NormalizeEmail(*event.Email)
		if normalized == "" {
			return ErrEmptyEmail
		}
		changes.Email = &normalized
	}

	if event.Password != nil {
		if len(*event.Password) < MinPasswordLength {
			return goerrors.New(
				"password must be longer than 5 characters",
				goerrors.CategoryValidation,
			).WithTextCode(TextCodePasswordTooShort)
		}
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if event.Password != nil {
			hash, err := HashPassword(*event.Password)
			if err != nil {
				var richErr *goerrors.Error
				if goerrors.As(err, &richErr) {
					return richErr
				}
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
			}
			changes.PasswordHash = &hash
		}

		if changes.isEmpty() {
			// nothing to persist; hand back the current record. The
			// read must ride the open transaction or it would block
			// behind it on single-connection databases.
			var err error
			user, err = h.repo.Users().GetByIDTx(ctx, tx, event.UserID.String())
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "could not load user for empty update")
			}
			return nil
		}

		var err error
		if user, err = h.repo.Users().UpdateProfileTx(ctx, tx, event.UserID, changes); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update user profile")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile update transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
