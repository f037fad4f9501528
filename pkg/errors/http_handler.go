package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError renders err in the {"detail": {...}} envelope. Errors that are
// not an *AppError are reported as internal without their cause.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	// Return error so caller can log - no recovery possible after WriteHeader
	return json.NewEncoder(w).Encode(appErr.Response())
}
