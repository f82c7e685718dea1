package repository

import "errors"

// Sentinel errors for store setup.
var (
	ErrEmptyPath = errors.New("database path is empty")
	ErrClosed    = errors.New("store is closed")
)
