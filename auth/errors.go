package auth

import "errors"

// Authentication failures. Use errors.Is to check for them.
var (
	// ErrMissingToken is returned when the request carries no credential.
	ErrMissingToken = errors.New("auth: token is missing")

	// ErrTokenInvalid covers bad signatures, malformed envelopes and
	// identities that do not decrypt.
	ErrTokenInvalid = errors.New("auth: token is invalid")

	// ErrTokenExpired is returned once a correctly signed token is past its expiry.
	ErrTokenExpired = errors.New("auth: token has expired")

	// ErrUserNotFound is returned when the token is valid but its user is gone.
	ErrUserNotFound = errors.New("auth: user not found")
)
