package service

import "errors"

// Sentinel errors for service lifecycle.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrMissingStore       = errors.New("score store is required")
	ErrMissingIdentity    = errors.New("identity provider is required")
	ErrMissingRoster      = errors.New("roster provider is required")
	ErrMissingAssignments = errors.New("assignment provider is required")
	ErrMissingCatalog     = errors.New("catalog provider is required")
)
