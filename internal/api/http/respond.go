// Package http holds the REST handlers. Each handler is a closure over its
// dependencies, returned by a Handle* constructor.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/evaluation"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/student"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors stay opaque to the client.
func writeError(w http.ResponseWriter, err error) {
	var (
		nf  *evaluation.NotFoundError
		val *evaluation.ValidationError
		mu  *evaluation.ModelUnavailableError
		mr  *evaluation.ModelResponseError
	)
	switch {
	case errors.As(err, &nf):
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": nf.Error()})
	case errors.As(err, &val):
		respondJSON(w, http.StatusBadRequest, map[string]string{"detail": val.Error()})
	case errors.As(err, &mu):
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": mu.Error()})
	case errors.As(err, &mr):
		respondJSON(w, http.StatusBadGateway, map[string]string{"detail": mr.Error()})
	case errors.Is(err, rubric.ErrNotFound), errors.Is(err, student.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
	}
}

// paging reads skip/limit query parameters with sane bounds.
func paging(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return skip, limit
}
