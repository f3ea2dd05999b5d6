package auth

import "errors"

// Authentication failures: the caller never proved who they are.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrMalformed    = errors.New("malformed token")
	ErrExpired      = errors.New("expired token")
	ErrRevoked      = errors.New("revoked token")
)

// Authorization failures: identity is settled, access is not.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient role")
)
