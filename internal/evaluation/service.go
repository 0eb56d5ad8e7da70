package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/audit"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/student"
)

// Catalog is the rubric provider boundary. Rubrics come back ordered by
// display order ascending.
type Catalog interface {
	ListRubrics(ctx context.Context, reportTypeID string) ([]rubric.Rubric, error)
	GetReportType(ctx context.Context, id string) (rubric.ReportType, error)
}

// Students resolves student references.
type Students interface {
	Get(ctx context.Context, id string) (student.Student, error)
}

// Service aggregates reconciled scores into stored evaluations. All three
// entry points (manual, rule-based, model-assisted) funnel through create.
type Service struct {
	store    Store
	catalog  Catalog
	students Students
	scorer   *ModelScorer
	events   *audit.EventRepo // optional
}

func NewService(store Store, catalog Catalog, students Students, scorer *ModelScorer, events *audit.EventRepo) *Service {
	return &Service{store: store, catalog: catalog, students: students, scorer: scorer, events: events}
}

// ScoreInputRef is one manually-entered score, referencing a rubric by id.
type ScoreInputRef struct {
	RubricID string  `json:"rubric_id"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback,omitempty"`
}

// CreateRequest is the manual entry point's payload; the automated entry
// points build it internally from reconciled scores.
type CreateRequest struct {
	StudentID    string          `json:"student_id"`
	ReportTypeID string          `json:"report_type_id"`
	ReportTitle  string          `json:"report_title"`
	SeminarDate  string          `json:"seminar_date,omitempty"`
	SeminarTime  string          `json:"seminar_time,omitempty"`
	Method       Method          `json:"evaluation_method,omitempty"`
	Scores       []ScoreInputRef `json:"scores"`
	EvaluatorID  string          `json:"-"`
}

// CreateEvaluation validates references, clamps every score against the
// authoritative rubric record, recomputes both totals, and persists header
// plus children atomically. Totals are never taken from the caller.
func (s *Service) CreateEvaluation(ctx context.Context, req CreateRequest) (Evaluation, error) {
	if req.ReportTitle == "" {
		return Evaluation{}, &ValidationError{Msg: "report_title required"}
	}
	if len(req.Scores) == 0 {
		return Evaluation{}, &ValidationError{Msg: "an evaluation requires at least one score"}
	}
	method := req.Method
	if method == "" {
		method = MethodManual
	}
	if !method.Valid() {
		return Evaluation{}, &ValidationError{Msg: fmt.Sprintf("unknown evaluation method %q", method)}
	}

	if _, err := s.students.Get(ctx, req.StudentID); err != nil {
		if errors.Is(err, student.ErrNotFound) {
			return Evaluation{}, &NotFoundError{Kind: "student", ID: req.StudentID}
		}
		return Evaluation{}, err
	}
	if _, err := s.catalog.GetReportType(ctx, req.ReportTypeID); err != nil {
		if errors.Is(err, rubric.ErrNotFound) {
			return Evaluation{}, &NotFoundError{Kind: "report type", ID: req.ReportTypeID}
		}
		return Evaluation{}, err
	}

	rubrics, err := s.catalog.ListRubrics(ctx, req.ReportTypeID)
	if err != nil {
		return Evaluation{}, err
	}
	byID := make(map[string]rubric.Rubric, len(rubrics))
	for _, r := range rubrics {
		byID[r.ID] = r
	}

	now := time.Now()
	ev := Evaluation{
		ID:           uuid.NewString(),
		StudentID:    req.StudentID,
		ReportTypeID: req.ReportTypeID,
		ReportTitle:  req.ReportTitle,
		SeminarDate:  req.SeminarDate,
		SeminarTime:  req.SeminarTime,
		Method:       method,
		EvaluatorID:  req.EvaluatorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	scores := make([]Score, 0, len(req.Scores))
	for _, in := range req.Scores {
		r, ok := byID[in.RubricID]
		if !ok {
			return Evaluation{}, &NotFoundError{Kind: "rubric", ID: in.RubricID}
		}
		v := clamp(in.Score, r.MaxPoints)
		ev.TotalScore += v
		ev.MaxPossibleScore += r.MaxPoints
		scores = append(scores, Score{
			ID:           uuid.NewString(),
			EvaluationID: ev.ID,
			RubricID:     r.ID,
			Score:        v,
			Feedback:     in.Feedback,
			CreatedAt:    now,
		})
	}

	created, err := s.store.CreateEvaluation(ctx, ev, scores)
	if err != nil {
		return Evaluation{}, err
	}
	s.recordCreated(ctx, created)
	return created, nil
}

// AutomatedRequest is the payload shared by the rule-based and
// model-assisted entry points.
type AutomatedRequest struct {
	StudentID    string `json:"student_id"`
	ReportTypeID string `json:"report_type_id"`
	ReportTitle  string `json:"report_title"`
	ReportText   string `json:"report_content"`
	SeminarDate  string `json:"seminar_date,omitempty"`
	SeminarTime  string `json:"seminar_time,omitempty"`
	EvaluatorID  string `json:"-"`
}

// EvaluateRuleBased scores the submission with the keyword heuristic. The
// heuristic is total, so partial-coverage reconciliation reduces to a
// clamp-and-order pass.
func (s *Service) EvaluateRuleBased(ctx context.Context, req AutomatedRequest) (Evaluation, error) {
	rubrics, err := s.rubricsFor(ctx, req.ReportTypeID)
	if err != nil {
		return Evaluation{}, err
	}

	cands := ScoreHeuristically(rubrics, req.ReportText)
	rep, err := Reconcile(rubrics, cands, CoveragePartial)
	if err != nil {
		return Evaluation{}, err
	}
	return s.createFromReconciled(ctx, req, MethodRuleBased, rep.Scores)
}

// EvaluateWithModel scores the submission through the text-generation
// collaborator. The collaborator call completes before any store
// transaction opens; full coverage is required, and a reconciliation gap is
// surfaced as model non-compliance.
func (s *Service) EvaluateWithModel(ctx context.Context, req AutomatedRequest) (Evaluation, error) {
	if s.scorer == nil {
		return Evaluation{}, &ModelUnavailableError{Reason: "model-assisted scoring not configured"}
	}
	rubrics, err := s.rubricsFor(ctx, req.ReportTypeID)
	if err != nil {
		return Evaluation{}, err
	}

	cands, err := s.scorer.Score(ctx, rubrics, req.ReportTitle, req.ReportText)
	if err != nil {
		return Evaluation{}, err
	}

	rep, err := Reconcile(rubrics, cands, CoverageFull)
	if err != nil {
		var inc *IncompleteEvaluationError
		if errors.As(err, &inc) {
			return Evaluation{}, &ModelResponseError{
				Msg: "model response did not cover sections: " + strings.Join(inc.Missing, ", "),
			}
		}
		return Evaluation{}, err
	}
	for _, m := range rep.Malformed {
		log.Printf("model produced an uncoercible score for section %q", m)
	}
	return s.createFromReconciled(ctx, req, MethodLLM, rep.Scores)
}

func (s *Service) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	return s.store.GetEvaluation(ctx, id)
}

func (s *Service) ListEvaluations(ctx context.Context, f Filter) ([]Evaluation, error) {
	return s.store.ListEvaluations(ctx, f)
}

func (s *Service) rubricsFor(ctx context.Context, reportTypeID string) ([]rubric.Rubric, error) {
	if _, err := s.catalog.GetReportType(ctx, reportTypeID); err != nil {
		if errors.Is(err, rubric.ErrNotFound) {
			return nil, &NotFoundError{Kind: "report type", ID: reportTypeID}
		}
		return nil, err
	}
	rubrics, err := s.catalog.ListRubrics(ctx, reportTypeID)
	if err != nil {
		return nil, err
	}
	if len(rubrics) == 0 {
		return nil, &NotFoundError{Kind: "rubrics for report type", ID: reportTypeID}
	}
	return rubrics, nil
}

func (s *Service) createFromReconciled(ctx context.Context, req AutomatedRequest, method Method, scores []ScoreInput) (Evaluation, error) {
	refs := make([]ScoreInputRef, 0, len(scores))
	for _, in := range scores {
		refs = append(refs, ScoreInputRef{RubricID: in.RubricID, Score: in.Score, Feedback: in.Feedback})
	}
	return s.CreateEvaluation(ctx, CreateRequest{
		StudentID:    req.StudentID,
		ReportTypeID: req.ReportTypeID,
		ReportTitle:  req.ReportTitle,
		SeminarDate:  req.SeminarDate,
		SeminarTime:  req.SeminarTime,
		Method:       method,
		Scores:       refs,
		EvaluatorID:  req.EvaluatorID,
	})
}

func (s *Service) recordCreated(ctx context.Context, ev Evaluation) {
	if s.events == nil {
		return
	}
	data, _ := json.Marshal(map[string]any{
		"student_id":   ev.StudentID,
		"method":       ev.Method,
		"total_score":  ev.TotalScore,
		"max_possible": ev.MaxPossibleScore,
	})
	if err := s.events.Append(ctx, audit.Event{Type: "EvaluationCreated", Key: ev.ID, DataJSON: string(data)}); err != nil {
		log.Printf("audit append failed for evaluation %s: %v", ev.ID, err)
	}
}
