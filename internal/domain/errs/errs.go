// Package errs defines the error kinds shared by the evaluation core and its
// adapters. Callers classify failures with errors.Is against the Err* kinds and
// render them with Code.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidToken      = errors.New("invalid token")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrCannotRateSelf    = errors.New("cannot rate self")
	ErrTargetNotInRoster = errors.New("target not in roster")
	ErrTargetNotAssigned = errors.New("target not assigned")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNotFound          = errors.New("not found")
	ErrDataSourceMissing = errors.New("data source missing")
	ErrPersistence       = errors.New("persistence error")
	ErrRateLimited       = errors.New("rate limited")
)

var codes = map[error]string{
	ErrUnauthenticated:   "UNAUTHENTICATED",
	ErrInvalidToken:      "INVALID_TOKEN",
	ErrForbidden:         "FORBIDDEN",
	ErrValidation:        "VALIDATION_ERROR",
	ErrCannotRateSelf:    "CANNOT_RATE_SELF",
	ErrTargetNotInRoster: "TARGET_NOT_IN_ROSTER",
	ErrTargetNotAssigned: "TARGET_NOT_ASSIGNED",
	ErrInvalidParameter:  "INVALID_PARAMETER",
	ErrNotFound:          "NOT_FOUND",
	ErrDataSourceMissing: "DATA_SOURCE_MISSING",
	ErrPersistence:       "PERSISTENCE_ERROR",
	ErrRateLimited:       "RATE_LIMITED",
}

// kinds lists every kind in lookup order.
var kinds = []error{
	ErrUnauthenticated, ErrInvalidToken, ErrForbidden, ErrValidation,
	ErrCannotRateSelf, ErrTargetNotInRoster, ErrTargetNotAssigned,
	ErrInvalidParameter, ErrNotFound, ErrDataSourceMissing, ErrPersistence,
	ErrRateLimited,
}

// E is an operation failure of a given kind. Err carries the underlying cause
// and may be nil.
type E struct {
	Op   string
	Kind error
	Err  error
}

func (e *E) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *E) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// New returns an error of kind for op without an underlying cause.
func New(op string, kind error) error {
	return &E{Op: op, Kind: kind}
}

// Wrap returns an error of kind for op wrapping err.
func Wrap(op string, kind, err error) error {
	return &E{Op: op, Kind: kind, Err: err}
}

// Newf returns an error of kind for op with a formatted detail message.
func Newf(op string, kind error, format string, args ...any) error {
	return &E{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Kind returns the first known kind found in err's chain, or nil.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Code returns the stable upper-snake code for err, "INTERNAL_ERROR" when the
// error carries no known kind.
func Code(err error) string {
	if k := Kind(err); k != nil {
		return codes[k]
	}
	return "INTERNAL_ERROR"
}

// Is reports whether err is of kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
