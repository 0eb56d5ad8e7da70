package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/api/http"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/db"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/evaluation"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/student"
)

// newTestServer wires the handlers against an in-memory database, without
// auth middleware; RBAC is covered in its own package.
func newTestServer(t *testing.T) (*httptest.Server, *fixtures) {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })

	rubricStore := rubric.NewSQLStore(dbh)
	studentStore := student.NewSQLStore(dbh)
	svc := evaluation.NewService(evaluation.NewSQLStore(dbh), rubricStore, studentStore, nil, nil)

	fx := &fixtures{}
	fx.student, err = studentStore.Create(ctx, student.Student{
		FirstName: "Ada", LastName: "Lovelace", MatriculationNumber: "1234567",
	})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	fx.reportType, err = rubricStore.CreateReportType(ctx, "Thesis", "")
	if err != nil {
		t.Fatalf("seed report type: %v", err)
	}
	fx.intro, err = rubricStore.CreateRubric(ctx, rubric.Rubric{
		ReportTypeID: fx.reportType.ID, SectionName: "Introduction", MaxPoints: 10, DisplayOrder: 1,
	})
	if err != nil {
		t.Fatalf("seed rubric: %v", err)
	}
	fx.design, err = rubricStore.CreateRubric(ctx, rubric.Rubric{
		ReportTypeID: fx.reportType.ID, SectionName: "Design", MaxPoints: 20, DisplayOrder: 2,
	})
	if err != nil {
		t.Fatalf("seed rubric: %v", err)
	}

	r := chi.NewRouter()
	r.Post("/api/evaluations", api.HandleCreateEvaluation(svc))
	r.Post("/api/evaluations/rule-based", api.HandleEvaluateRuleBased(svc))
	r.Post("/api/evaluations/llm", api.HandleEvaluateLLM(svc))
	r.Get("/api/evaluations", api.HandleListEvaluations(svc))
	r.Get("/api/evaluations/{evaluationID}", api.HandleGetEvaluation(svc))
	r.Get("/api/evaluations/{evaluationID}/report/html", api.HandleEvaluationReport(svc))
	r.Get("/api/students/{studentID}", api.HandleGetStudent(studentStore))
	r.Get("/api/report-types/{reportTypeID}/statistics", api.HandleStatistics(rubricStore))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, fx
}

type fixtures struct {
	student    student.Student
	reportType rubric.ReportType
	intro      rubric.Rubric
	design     rubric.Rubric
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateEvaluationEndpoint(t *testing.T) {
	srv, fx := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/evaluations", map[string]any{
		"student_id":     fx.student.ID,
		"report_type_id": fx.reportType.ID,
		"report_title":   "On Computable Numbers",
		"scores": []map[string]any{
			{"rubric_id": fx.intro.ID, "score": 8, "feedback": "good"},
			{"rubric_id": fx.design.ID, "score": 12},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	ev := decode[evaluation.Evaluation](t, resp)
	if ev.TotalScore != 20 || ev.MaxPossibleScore != 30 {
		t.Errorf("totals = %v/%v, want 20/30", ev.TotalScore, ev.MaxPossibleScore)
	}

	// Read it back plus its rendered report.
	getResp, err := http.Get(srv.URL + "/api/evaluations/" + ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", getResp.StatusCode)
	}
	got := decode[evaluation.Evaluation](t, getResp)
	if len(got.Scores) != 2 {
		t.Errorf("got %d scores, want 2", len(got.Scores))
	}

	repResp, err := http.Get(srv.URL + "/api/evaluations/" + ev.ID + "/report/html")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	defer repResp.Body.Close()
	if ct := repResp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("report content type = %q", ct)
	}
}

func TestCreateEvaluationMapsDomainErrors(t *testing.T) {
	srv, fx := newTestServer(t)

	cases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"validation", map[string]any{
			"student_id": fx.student.ID, "report_type_id": fx.reportType.ID,
			"report_title": "", "scores": []map[string]any{{"rubric_id": fx.intro.ID, "score": 1}},
		}, http.StatusBadRequest},
		{"unknown student", map[string]any{
			"student_id": "missing", "report_type_id": fx.reportType.ID,
			"report_title": "T", "scores": []map[string]any{{"rubric_id": fx.intro.ID, "score": 1}},
		}, http.StatusNotFound},
		{"unknown report type", map[string]any{
			"student_id": fx.student.ID, "report_type_id": "missing",
			"report_title": "T", "scores": []map[string]any{{"rubric_id": fx.intro.ID, "score": 1}},
		}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/evaluations", tc.body)
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestRuleBasedEndpoint(t *testing.T) {
	srv, fx := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/evaluations/rule-based", map[string]any{
		"student_id":     fx.student.ID,
		"report_type_id": fx.reportType.ID,
		"report_title":   "Thesis Draft",
		"report_content": "The introduction gives an overview. The design follows a layered architecture.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	ev := decode[evaluation.Evaluation](t, resp)
	if ev.TotalScore != 21 {
		t.Errorf("total = %v, want 21", ev.TotalScore)
	}
	if ev.Method != evaluation.MethodRuleBased {
		t.Errorf("method = %q", ev.Method)
	}
}

func TestLLMEndpointUnconfiguredReturns503(t *testing.T) {
	srv, fx := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/evaluations/llm", map[string]any{
		"student_id":     fx.student.ID,
		"report_type_id": fx.reportType.ID,
		"report_title":   "T",
		"report_content": "x",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestGetEvaluationNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/evaluations/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	srv, fx := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/evaluations", map[string]any{
		"student_id":     fx.student.ID,
		"report_type_id": fx.reportType.ID,
		"report_title":   "T",
		"scores": []map[string]any{
			{"rubric_id": fx.intro.ID, "score": 8},
			{"rubric_id": fx.design.ID, "score": 16},
		},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed evaluation: status %d", resp.StatusCode)
	}

	stResp, err := http.Get(srv.URL + "/api/report-types/" + fx.reportType.ID + "/statistics")
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", stResp.StatusCode)
	}
	st := decode[rubric.Statistics](t, stResp)
	if st.TotalEvaluations != 1 || st.AverageScore != 24 {
		t.Errorf("stats = %+v, want 1 evaluation averaging 24", st)
	}
}
