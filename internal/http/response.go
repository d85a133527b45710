package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"spendly/internal/auth"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/storage"
	"spendly/internal/summary"
)

// Fixed client-facing messages.
const (
	msgUserExists     = "User already exists"
	msgNotRegistered  = "Register before logging in"
	msgWrongPassword  = "Wrong mailID or password!"
	msgLoginOK        = "Login successful!"
	msgDeleted        = "Successfully deleted!"
	msgNotFound       = "Not found"
	msgInternalError  = "Something went wrong, please try again later"
	msgRateLimited    = "Too many requests, please try again later"
	msgRecordNotFound = "Record not found"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// isValidationError reports whether err is caused by bad client input.
func isValidationError(err error) bool {
	for _, target := range []error{
		errBadBody,
		core.ErrEmptyEmail,
		core.ErrEmptyPassword,
		core.ErrEmptyDate,
		core.ErrEmptyCategory,
		core.ErrInvalidAmount,
		core.ErrInvalidBudget,
		core.ErrInvalidDate,
		core.ErrUnknownCategory,
		summary.ErrInvalidFilter,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError maps domain errors to status codes. Anything unrecognised is
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case isValidationError(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUserExists):
		writeMessage(w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, auth.ErrNotRegistered):
		writeMessage(w, http.StatusBadRequest, msgNotRegistered)
	case errors.Is(err, auth.ErrWrongPassword):
		writeMessage(w, http.StatusUnauthorized, msgWrongPassword)
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, msgNotFound)
	default:
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeMessage(w, http.StatusInternalServerError, msgInternalError)
	}
}
