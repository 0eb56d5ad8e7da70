package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/auth/middleware"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/evaluation"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/report"
)

// POST /api/evaluations — manual score entry.
func HandleCreateEvaluation(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req evaluation.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad json"})
			return
		}
		req.EvaluatorID = auth.SubjectFromContext(r.Context())
		ev, err := svc.CreateEvaluation(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, ev)
	}
}

// POST /api/evaluations/rule-based — keyword-heuristic scoring.
func HandleEvaluateRuleBased(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req evaluation.AutomatedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad json"})
			return
		}
		req.EvaluatorID = auth.SubjectFromContext(r.Context())
		ev, err := svc.EvaluateRuleBased(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, ev)
	}
}

// POST /api/evaluations/llm — model-assisted scoring. The upstream call
// runs to completion before anything is written, so a failure here leaves
// no partial evaluation behind.
func HandleEvaluateLLM(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req evaluation.AutomatedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad json"})
			return
		}
		req.EvaluatorID = auth.SubjectFromContext(r.Context())
		ev, err := svc.EvaluateWithModel(r.Context(), req)
		if err != nil {
			log.Printf("model-assisted evaluation failed: %v", err)
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, ev)
	}
}

// GET /api/evaluations/{evaluationID}
func HandleGetEvaluation(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := svc.GetEvaluation(r.Context(), chi.URLParam(r, "evaluationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ev)
	}
}

// GET /api/evaluations?student_id=&skip=&limit=
func HandleListEvaluations(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := paging(r)
		out, err := svc.ListEvaluations(r.Context(), evaluation.Filter{
			StudentID: r.URL.Query().Get("student_id"),
			Skip:      skip,
			Limit:     limit,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /api/evaluations/mine — the authenticated evaluator's own work.
func HandleMyEvaluations(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := paging(r)
		out, err := svc.ListEvaluations(r.Context(), evaluation.Filter{
			EvaluatorID: auth.SubjectFromContext(r.Context()),
			Skip:        skip,
			Limit:       limit,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /api/evaluations/{evaluationID}/report/html — print-ready HTML.
func HandleEvaluationReport(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := svc.GetEvaluation(r.Context(), chi.URLParam(r, "evaluationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		html, err := report.RenderHTML(ev)
		if err != nil {
			respondJSON(w, http.StatusInternalServerError, map[string]string{"detail": "render failed"})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(html)
	}
}
