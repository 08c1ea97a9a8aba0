package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"yardgate/internal/booking"
)

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeErrorEnvelope(w, status, APIError{Code: code, Message: message})
}

// WriteBookingError maps the engine's error taxonomy onto HTTP. Forbidden
// stays deliberately vague so authorization failures never disclose what
// state the booking is in.
func WriteBookingError(w http.ResponseWriter, err error) {
	var vErr *booking.ValidationError
	var tErr *booking.InvalidTransitionError

	switch {
	case errors.Is(err, booking.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
	case errors.Is(err, booking.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "access denied")
	case errors.As(err, &tErr):
		WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", tErr.Error())
	case errors.As(err, &vErr):
		writeErrorEnvelope(w, http.StatusBadRequest, APIError{
			Code:    "VALIDATION_FAILED",
			Message: "validation failed",
			Fields:  vErr.Fields,
		})
	case errors.Is(err, booking.ErrConflict):
		WriteError(w, http.StatusConflict, "CONFLICT", "booking was modified concurrently; reload and retry")
	case errors.Is(err, booking.ErrPersistenceUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "storage unavailable, retry later")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func writeErrorEnvelope(w http.ResponseWriter, status int, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Error: apiErr})
}
