package auth

import "errors"

// Sentinel errors for provider construction.
var (
	ErrSecretTooShort = errors.New("token secret must be at least 16 bytes")
	ErrNoDirectory    = errors.New("user directory is required")
)
