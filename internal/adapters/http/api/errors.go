package api

import (
	"errors"
	"net/http"

	"github.com/okian/peereval/internal/domain/errs"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrMissingBearer = errors.New("missing bearer token")
	// ErrRequestInFlight is returned when an idempotency key is replayed
	// before the first submission carrying it has finished.
	ErrRequestInFlight = errors.New("a submission with this idempotency key is still in progress")
)

// CodeRequestInFlight is the error code sent with ErrRequestInFlight.
const CodeRequestInFlight = "REQUEST_IN_FLIGHT"

var statusByKind = map[error]int{
	errs.ErrUnauthenticated:   http.StatusUnauthorized,
	errs.ErrInvalidToken:      http.StatusUnauthorized,
	errs.ErrForbidden:         http.StatusForbidden,
	errs.ErrValidation:        http.StatusBadRequest,
	errs.ErrCannotRateSelf:    http.StatusBadRequest,
	errs.ErrTargetNotInRoster: http.StatusBadRequest,
	errs.ErrTargetNotAssigned: http.StatusForbidden,
	errs.ErrInvalidParameter:  http.StatusBadRequest,
	errs.ErrNotFound:          http.StatusNotFound,
	errs.ErrDataSourceMissing: http.StatusInternalServerError,
	errs.ErrPersistence:       http.StatusInternalServerError,
	errs.ErrRateLimited:       http.StatusTooManyRequests,
}

// statusFor maps an error kind to an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	if st, ok := statusByKind[errs.Kind(err)]; ok {
		return st
	}
	return http.StatusInternalServerError
}

// writeKindError renders err with the status and code of its kind. Server
// errors carry no detail.
func writeKindError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), errs.Code(err), err)
}
