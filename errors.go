package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes give API clients a stable value to branch on without
// matching error message strings.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeMissingCredentials = "MISSING_CREDENTIALS"
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	TextCodePasswordTooLong    = "PASSWORD_TOO_LONG"
	TextCodeEmptyEmail         = "EMPTY_EMAIL"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound)

// ErrMismatchedHashAndPassword is returned when a plaintext password
// does not verify against a stored hash
var ErrMismatchedHashAndPassword = goerrors.New(
	"the credentials provided are invalid",
	goerrors.CategoryAuth,
).WithTextCode(TextCodeInvalidCreds)

// ErrPasswordTooLong rejects passwords past the bcrypt input limit
var ErrPasswordTooLong = goerrors.New(
	"password must be at most 72 characters",
	goerrors.CategoryValidation,
).WithTextCode(TextCodePasswordTooLong)

// ErrNoEmptyString rejects empty plaintext passwords before hashing
var ErrNoEmptyString = goerrors.New(
	"password should not be an empty string",
	goerrors.CategoryValidation,
).WithTextCode(TextCodeEmptyPassword)

// ErrInvalidCredentials is returned by the token issuer when the
// presented email/password pair cannot be resolved to an active account.
// The message intentionally does not reveal which part failed.
var ErrInvalidCredentials = goerrors.New(
	"no active account found with the given credentials",
	goerrors.CategoryAuth,
).WithTextCode(TextCodeInvalidCreds)

// ErrMissingCredentials means the request carried no credential at all,
// as opposed to an invalid one.
var ErrMissingCredentials = goerrors.New(
	"authentication credentials were not provided",
	goerrors.CategoryAuth,
).WithTextCode(TextCodeMissingCredentials).WithCode(goerrors.CodeUnauthorized)

// ErrInvalidToken is returned when a presented token key is unknown or
// its owning account is no longer active.
var ErrInvalidToken = goerrors.New(
	"invalid or unknown token",
	goerrors.CategoryAuth,
).WithTextCode(TextCodeInvalidToken).WithCode(goerrors.CodeUnauthorized)

// ErrEmptyEmail rejects user records without an email address
var ErrEmptyEmail = goerrors.New(
	"email must not be empty",
	goerrors.CategoryValidation,
).WithTextCode(TextCodeEmptyEmail)

// ErrEmailTaken is the uniqueness violation on users.email
var ErrEmailTaken = goerrors.New(
	"a user with this email already exists",
	goerrors.CategoryConflict,
).WithTextCode(TextCodeEmailTaken)

// IsAuthenticationError reports whether err belongs to the
// authentication category, covering both invalid credentials and
// unresolvable tokens.
func IsAuthenticationError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth
}

// IsValidationError reports whether err was raised by input validation.
func IsValidationError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryValidation
}

// IsConflictError reports whether err is a uniqueness violation.
func IsConflictError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryConflict
}
