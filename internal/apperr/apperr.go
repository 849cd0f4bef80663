package apperr

import (
	"errors"
	"net/http"
)

// Sentinel errors for the service-wide failure taxonomy. Layers wrap these
// with fmt.Errorf("...: %w", ...) and handlers map them to HTTP statuses
// via Status.
var (
	// ErrNotConfigured means required external configuration is absent
	// (registry DSN, bootstrap superadmin credentials).
	ErrNotConfigured = errors.New("not configured")

	// ErrConnection means the backing store is unreachable or a tenant
	// connection could not be established.
	ErrConnection = errors.New("connection failed")

	// ErrUnauthorized means missing or invalid credentials/token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means a valid token with the wrong role.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means a duplicate unique key (username, email).
	ErrConflict = errors.New("conflict")

	// ErrNotFound means an entity id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrValidation means a malformed input payload.
	ErrValidation = errors.New("validation failed")
)

// Status maps an error chain to its HTTP status code. Unknown errors
// report 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the error text for known taxonomy members and a generic
// message otherwise, so unexpected internals never leak to clients.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotConfigured),
		errors.Is(err, ErrConnection):
		return err.Error()
	default:
		return "internal server error"
	}
}
