package httpx

import (
	"errors"
	"net/http"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// RespondError maps domain errors to envelope responses. Unclassified
// errors become a 500 with details suppressed.
func RespondError(w http.ResponseWriter, err error) {
	JSON(w, StatusFor(err), Envelope{Success: false, Message: shared.UserSafeMessage(err)})
}

// Unauthorized sends the 401 envelope used by the authentication guard.
func Unauthorized(w http.ResponseWriter) {
	JSON(w, http.StatusUnauthorized, Envelope{Success: false, Message: "Authentication required"})
}

// Forbidden sends the 403 envelope used by the admin guard.
func Forbidden(w http.ResponseWriter) {
	JSON(w, http.StatusForbidden, Envelope{Success: false, Message: "Admin access required"})
}

// StatusFor classifies a domain error into an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
