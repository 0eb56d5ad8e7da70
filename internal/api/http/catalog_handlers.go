package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
)

// GET /api/report-types
func HandleListReportTypes(store *rubric.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListReportTypes(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// POST /api/report-types (admin)
func HandleCreateReportType(store *rubric.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "name required"})
			return
		}
		rt, err := store.CreateReportType(r.Context(), req.Name, req.Description)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		respondJSON(w, http.StatusCreated, rt)
	}
}

// GET /api/report-types/{reportTypeID}/rubrics
func HandleListRubrics(store *rubric.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "reportTypeID")
		if _, err := store.GetReportType(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		out, err := store.ListRubrics(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// POST /api/report-types/{reportTypeID}/rubrics (admin)
func HandleCreateRubric(store *rubric.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rubric.Rubric
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SectionName == "" {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "section_name required"})
			return
		}
		req.ReportTypeID = chi.URLParam(r, "reportTypeID")
		if _, err := store.GetReportType(r.Context(), req.ReportTypeID); err != nil {
			writeError(w, err)
			return
		}
		created, err := store.CreateRubric(r.Context(), req)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		respondJSON(w, http.StatusCreated, created)
	}
}

// POST /api/rubrics/import (admin) — multipart CSV upload, or a raw CSV
// body when no multipart form is present.
func HandleImportRubricsCSV(store *rubric.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := r.Body
		if f, _, err := r.FormFile("file"); err == nil {
			defer f.Close()
			body = f
		}
		n, err := rubric.ImportCSV(r.Context(), store, body)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]int{"imported": n})
	}
}

// GET /api/report-types/{reportTypeID}/statistics
func HandleStatistics(store *rubric.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Statistics(r.Context(), chi.URLParam(r, "reportTypeID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}

// GET /api/statistics — one entry per report type.
func HandleAllStatistics(store *rubric.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := store.ListReportTypes(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]rubric.Statistics, 0, len(types))
		for _, rt := range types {
			st, err := store.Statistics(r.Context(), rt.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			out = append(out, st)
		}
		respondJSON(w, http.StatusOK, out)
	}
}
