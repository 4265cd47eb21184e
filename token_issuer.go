package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// tokenKeyBytes is the entropy of a token key; keys render as twice as
// many hex characters.
const tokenKeyBytes = 20

// TokenIssuer verifies credentials and mints opaque session tokens.
// Every successful call to Issue creates a fresh token; previously
// issued tokens for the same user stay valid.
type TokenIssuer struct {
	repo   RepositoryManager
	logger Logger
}

var _ Issuer = (*TokenIssuer)(nil)

// NewTokenIssuer returns a new TokenIssuer
func NewTokenIssuer(repo RepositoryManager) *TokenIssuer {
	return &TokenIssuer{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *TokenIssuer) WithLogger(logger Logger) *TokenIssuer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Issue verifies the email/password pair and persists a new token
// bound to the resolved user. Unknown accounts, inactive accounts, and
// wrong passwords all collapse into the same authentication error.
func (s *TokenIssuer) Issue(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !user.IsActive {
		return "", ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("password verification failed for %s", user.Email)
		return "", ErrInvalidCredentials
	}

	key, err := generateTokenKey()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate token key")
	}

	token := &Token{
		Key:    key,
		UserID: user.ID,
	}

	if _, err := s.repo.Tokens().Create(ctx, token); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist token")
	}

	return key, nil
}

// Resolve returns the owner of the presented key. Unknown keys and
// keys owned by inactive accounts yield the same error.
func (s *TokenIssuer) Resolve(ctx context.Context, key string) (*User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}

	token, err := s.repo.Tokens().GetByKey(ctx, key)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve token")
	}

	if token.User == nil || !token.User.IsActive {
		return nil, ErrInvalidToken
	}

	return token.User, nil
}

func generateTokenKey() (string, error) {
	buf := make([]byte, tokenKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
