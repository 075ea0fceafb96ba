package auth

import "errors"

// Authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or the
	// signature does not match.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrInvalidCredentials indicates a failed name/password login. The
	// same error covers unknown accounts and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
