package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/evaluation"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/student"
)

// POST /api/students
func HandleCreateStudent(store *student.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FirstName           string `json:"first_name"`
			LastName            string `json:"last_name"`
			MatriculationNumber string `json:"matriculation_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad json"})
			return
		}
		st, err := store.Create(r.Context(), student.Student{
			FirstName:           req.FirstName,
			LastName:            req.LastName,
			MatriculationNumber: req.MatriculationNumber,
		})
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		respondJSON(w, http.StatusCreated, st)
	}
}

// GET /api/students/{studentID}
func HandleGetStudent(store *student.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Get(r.Context(), chi.URLParam(r, "studentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}

// GET /api/students?skip=&limit=
func HandleListStudents(store *student.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := paging(r)
		out, err := store.List(r.Context(), skip, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /api/students/{studentID}/evaluations — a student's evaluation
// history, newest first.
func HandleStudentEvaluations(svc *evaluation.Service, store *student.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "studentID")
		if _, err := store.Get(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		skip, limit := paging(r)
		out, err := svc.ListEvaluations(r.Context(), evaluation.Filter{StudentID: id, Skip: skip, Limit: limit})
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}
