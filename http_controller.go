package identity

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

type IdentityControllerRoutes struct {
	UserCreate  string
	TokenCreate string
	Me          string
}

type IdentityController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Issuer Issuer
	Routes *IdentityControllerRoutes
}

type IdentityControllerOption func(*IdentityController) *IdentityController

func NewIdentityController(opts ...IdentityControllerOption) *IdentityController {
	c := &IdentityController{
		Logger: defLogger{},
		Routes: &IdentityControllerRoutes{
			UserCreate:  "/users/create",
			TokenCreate: "/users/token",
			Me:          "/users/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in identity controller...")
	}

	if c.Issuer == nil {
		panic("Missing Issuer in identity controller...")
	}

	return c
}

func WithControllerRepository(repo RepositoryManager) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Repo = repo
		return c
	}
}

func WithControllerIssuer(issuer Issuer) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Issuer = issuer
		return c
	}
}

func WithControllerLogger(logger Logger) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Debug = debug
		return c
	}
}

// RegisterIdentityRoutes binds the HTTP contract. The gate protects
// the self-service routes only; user creation and token issuance are
// public, and POST on the profile resource is rejected before any
// authentication happens.
func RegisterIdentityRoutes(app *fiber.App, gate fiber.Handler, opts ...IdentityControllerOption) *IdentityController {
	controller := NewIdentityController(opts...)

	app.Post(controller.Routes.UserCreate, controller.UserCreate)
	app.Post(controller.Routes.TokenCreate, controller.TokenCreate)

	app.Get(controller.Routes.Me, gate, controller.MeShow)
	app.Patch(controller.Routes.Me, gate, controller.MeUpdate)
	app.Post(controller.Routes.Me, controller.MeMethodNotAllowed)

	return controller
}

// CreateUserRequest payload
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate will run validation rules
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
		validation.Field(&r.Name, validation.Length(0, 200)),
	)
}

func (a *IdentityController) UserCreate(c *fiber.Ctx) error {
	payload := new(CreateUserRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("create user parse payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"body": "failed to parse request body"},
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("create user validate payload: ", "error", err)
		return validationErrorResponse(c, err)
	}

	if a.Debug {
		redacted := *payload
		redacted.Password = "[REDACTED]"
		fmt.Println("======= USER CREATE ======")
		fmt.Println(print.MaybePrettyJSON(redacted))
		fmt.Println("==========================")
	}

	var created *User
	registerUser := NewRegisterUserHandler(a.Repo).WithLogger(a.Logger)
	err := registerUser.Execute(c.UserContext(), RegisterUserMessage{
		Email:    payload.Email,
		Name:     payload.Name,
		Password: payload.Password,
		OnResponse: func(user *User) {
			created = user
		},
	})
	if err != nil {
		a.Logger.Error("create user error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created.Profile())
}

// CreateTokenRequest payload
type CreateTokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r CreateTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *IdentityController) TokenCreate(c *fiber.Ctx) error {
	payload := new(CreateTokenRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("create token parse payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"body": "failed to parse request body"},
		})
	}

	if err := payload.Validate(); err != nil {
		return validationErrorResponse(c, err)
	}

	token, err := a.Issuer.Issue(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		if IsAuthenticationError(err) {
			// invalid credentials on the token endpoint are a request
			// failure, not a challenge; the response carries no token
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"errors": fiber.Map{"non_field_errors": ErrInvalidCredentials.Message},
			})
		}
		a.Logger.Error("create token error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"token": token})
}

func (a *IdentityController) MeShow(c *fiber.Ctx) error {
	user, ok := FromContext(c.UserContext())
	if !ok {
		return a.renderError(c, ErrMissingCredentials)
	}

	return c.JSON(user.Profile())
}

// UpdateProfileRequest payload. Absent fields stay untouched.
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Validate will run validation rules
func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Password, validation.Length(MinPasswordLength, MaxPasswordLength)),
		validation.Field(&r.Name, validation.Length(0, 200)),
	)
}

func (a *IdentityController) MeUpdate(c *fiber.Ctx) error {
	user, ok := FromContext(c.UserContext())
	if !ok {
		return a.renderError(c, ErrMissingCredentials)
	}

	payload := new(UpdateProfileRequest)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("update profile parse payload: ", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"body": "failed to parse request body"},
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("update profile validate payload: ", "error", err)
		return validationErrorResponse(c, err)
	}

	var updated *User
	updateProfile := NewUpdateProfileHandler(a.Repo).WithLogger(a.Logger)
	err := updateProfile.Execute(c.UserContext(), UpdateProfileMessage{
		UserID:   user.ID,
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(user *User) {
			updated = user
		},
	})
	if err != nil {
		a.Logger.Error("update profile error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.JSON(updated.Profile())
}

// MeMethodNotAllowed rejects full-replace style POSTs on the profile
// resource regardless of authentication state.
func (a *IdentityController) MeMethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, "GET, PATCH")
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
		"error": "method not allowed on this resource",
	})
}

func (a *IdentityController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	status := fiber.StatusInternalServerError
	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryConflict, goerrors.CategoryBadInput:
		status = fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		status = fiber.StatusUnauthorized
	case goerrors.CategoryNotFound:
		status = fiber.StatusNotFound
	}

	return c.Status(status).JSON(fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func validationErrorResponse(c *fiber.Ctx, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": verrs})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": err.Error()})
}
