package auth

import "errors"

var (
	// ErrInvalidToken indicates a token that is missing, malformed, carries a
	// bad signature, or has expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTokenMismatch indicates the presented refresh token does not match
	// the value currently stored for the user, typically because it was
	// already rotated or revoked.
	ErrTokenMismatch = errors.New("refresh token mismatch")
	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
