package calls

import (
	"errors"
	"net/http"
)

// Error kinds. Operations wrap these with a human readable message
// (fmt.Errorf("%w: ...")); callers classify with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("invalid state")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// Kind names the error kind for logs, metrics and API bodies.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrState):
		return "state"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

// StatusCode maps an operation error to its HTTP status.
func StatusCode(err error) int {
	switch Kind(err) {
	case "ok":
		return http.StatusOK
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "state", "conflict":
		return http.StatusConflict
	case "forbidden":
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
