package tokenware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	identity "github.com/goliatone/go-identity"
)

const defaultAuthScheme = "Bearer"

// Resolver turns a presented token key into its owning user. It
// mirrors identity.Issuer's Resolve method; the TokenIssuer satisfies
// it directly.
type Resolver interface {
	Resolve(ctx context.Context, key string) (*identity.User, error)
}

type Config struct {
	// Resolver is required; requests fail closed without one.
	Resolver Resolver
	// Filter skips the gate for matching requests.
	Filter func(*fiber.Ctx) bool
	// SuccessHandler runs once the user is resolved. Defaults to Next.
	SuccessHandler fiber.Handler
	// ErrorHandler translates gate failures into a response.
	ErrorHandler func(*fiber.Ctx, error) error
	// ContextKey is the request-locals key holding the resolved user.
	ContextKey string
	// AuthScheme is the expected Authorization scheme prefix.
	AuthScheme string
}

// New builds the auth gate middleware. It extracts the bearer
// credential, resolves it to a user, and stores the user both in
// request locals and in the request context. A missing credential is
// reported distinctly from an invalid one.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		key, err := extractTokenKey(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		user, err := cfg.Resolver.Resolve(c.UserContext(), key)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, user)
		c.SetUserContext(identity.WithContext(c.UserContext(), user))

		return cfg.SuccessHandler(c)
	}
}

// User retrieves the resolved user stored by the gate.
func User(c *fiber.Ctx, key string) (*identity.User, bool) {
	if key == "" {
		key = identity.DefaultUserContextKey
	}
	user, ok := c.Locals(key).(*identity.User)
	return user, ok
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("Missing Resolver in tokenware config...")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = identity.DefaultUserContextKey
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = defaultAuthScheme
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return cfg
}

func extractTokenKey(c *fiber.Ctx, scheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", identity.ErrMissingCredentials
	}

	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", identity.ErrMissingCredentials
	}

	key := strings.TrimSpace(header[len(prefix):])
	if key == "" {
		return "", identity.ErrMissingCredentials
	}

	return key, nil
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	}

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "invalid authentication credentials",
	})
}
