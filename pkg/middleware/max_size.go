package middleware

import (
	"fmt"
	"net/http"

	apperrors "fitstudio/pkg/errors"
)

// MaxRequestSize rejects bodies that declare more than limit bytes and caps
// the rest with http.MaxBytesReader, which the JSON decoder reports as
// payload_too_large.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				err := apperrors.New(apperrors.CodePayloadTooLarge,
					fmt.Sprintf("Request body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
				_ = apperrors.WriteError(w, err)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
