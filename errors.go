package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ErrUserNotFound is the error we return when a user row does not exist
var ErrUserNotFound = errors.New("user not found")

// ErrNoSession is the error when the request carries no usable session
var ErrNoSession = errors.New("no active session")

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty")

// ErrMismatchedHashAndPassword is the constant-time compare failure
var ErrMismatchedHashAndPassword = errors.New("password does not match")

// Decode failure reasons. SessionManager collapses all of them into "no
// session"; they exist so tests and diagnostics can tell the causes apart.
var (
	// ErrTokenExpired means signature and shape were fine but the token is past its expiry
	ErrTokenExpired = errors.New("session token expired")
	// ErrTokenSignature means the signature did not verify against the server key
	ErrTokenSignature = errors.New("session token signature invalid")
	// ErrTokenAlgorithm means the token header names a different algorithm than the one configured
	ErrTokenAlgorithm = errors.New("session token algorithm mismatch")
	// ErrTokenMalformed covers corrupt encoding and every other parse failure
	ErrTokenMalformed = errors.New("session token malformed")
)

// ErrAdminRequired is surfaced when a role gate rejects an authenticated user.
var ErrAdminRequired = goerrors.New("admin access required", goerrors.CategoryAuthz).
	WithTextCode("ADMIN_REQUIRED").
	WithCode(goerrors.CodeForbidden)

// WrapStoreError normalizes credential store failures into categorized
// internal errors without leaking driver detail to callers.
func WrapStoreError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

// IsNoSession reports whether err means the request has no honored session.
func IsNoSession(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrUserNotFound)
}
