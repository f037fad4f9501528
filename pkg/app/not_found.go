package app

import (
	"net/http"

	apperrors "fitstudio/pkg/errors"
)

func notFound(w http.ResponseWriter, r *http.Request) {
	_ = apperrors.WriteError(w, apperrors.NotFound("Route "+r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = apperrors.WriteError(w, apperrors.New("method_not_allowed", r.Method+" is not allowed on "+r.URL.Path, http.StatusMethodNotAllowed))
}
