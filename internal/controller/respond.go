// internal/controller/respond.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
	"github.com/textloop/textloop-backend/internal/timing"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. Anything we don't
// recognize is a 500.
func writeError(w http.ResponseWriter, err error) {
	var missing *appErrors.MissingEntityError
	var conflict *appErrors.ConcurrentGenerationError
	var format *timing.FormatError

	switch {
	case errors.As(err, &missing):
		http.Error(w, missing.Error(), http.StatusNotFound)
	case errors.As(err, &conflict):
		http.Error(w, conflict.Error(), http.StatusConflict)
	case errors.As(err, &format):
		http.Error(w, format.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
