package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "fitstudio/pkg/errors"
)

// ParseID reads a positive integer path parameter.
func ParseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperrors.InvalidInput(field, fmt.Sprintf("%s must be an integer, got %q", field, raw))
	}
	if id < 1 {
		return 0, apperrors.InvalidInput(field, fmt.Sprintf("%s must be a positive integer, got %d", field, id))
	}
	return id, nil
}

// DecodeJSON decodes a single JSON object from the request body into dst,
// mapping malformed payloads and oversized bodies to client errors.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxErr):
			return apperrors.New(apperrors.CodePayloadTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
		case errors.As(err, &typeErr):
			return apperrors.InvalidInput(typeErr.Field, fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
		case errors.Is(err, io.EOF):
			return apperrors.Validation("Request body is required", nil)
		default:
			return apperrors.Validation("Invalid request body", map[string]any{"error": err.Error()})
		}
	}
	if dec.More() {
		return apperrors.Validation("Request body must contain a single JSON object", nil)
	}
	return nil
}
