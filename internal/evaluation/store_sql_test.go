package evaluation_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/db"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/evaluation"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/student"
)

// openTestDB gives each test its own in-memory database with the schema
// applied.
func openTestDB(t *testing.T) (*testFixture, context.Context) {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })

	f := &testFixture{
		dbh:      dbh,
		store:    evaluation.NewSQLStore(dbh),
		rubrics:  rubric.NewSQLStore(dbh),
		students: student.NewSQLStore(dbh),
	}

	for _, u := range []string{"u-1", "u-2"} {
		if _, err := dbh.ExecContext(ctx,
			`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,'x','evaluator',0)`,
			u, u); err != nil {
			t.Fatalf("seed user %s: %v", u, err)
		}
	}

	st, err := f.students.Create(ctx, student.Student{
		FirstName: "Ada", LastName: "Lovelace", MatriculationNumber: "1234567",
	})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	f.student = st

	rt, err := f.rubrics.CreateReportType(ctx, "Thesis", "")
	if err != nil {
		t.Fatalf("seed report type: %v", err)
	}
	f.reportType = rt

	for i, s := range []struct {
		name string
		max  float64
	}{{"Introduction", 10}, {"Design", 20}} {
		r, err := f.rubrics.CreateRubric(ctx, rubric.Rubric{
			ReportTypeID: rt.ID, SectionName: s.name, MaxPoints: s.max, DisplayOrder: i + 1,
		})
		if err != nil {
			t.Fatalf("seed rubric %s: %v", s.name, err)
		}
		f.rubricRows = append(f.rubricRows, r)
	}
	return f, ctx
}

type testFixture struct {
	dbh        *sql.DB
	store      *evaluation.SQLStore
	rubrics    *rubric.SQLStore
	students   *student.SQLStore
	student    student.Student
	reportType rubric.ReportType
	rubricRows []rubric.Rubric
}

func (f *testFixture) evaluationRow(id string) evaluation.Evaluation {
	now := time.Now()
	return evaluation.Evaluation{
		ID:               id,
		StudentID:        f.student.ID,
		ReportTypeID:     f.reportType.ID,
		ReportTitle:      "On Computable Numbers",
		TotalScore:       22,
		MaxPossibleScore: 30,
		Method:           evaluation.MethodManual,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestSQLStoreCreateAndReadBack(t *testing.T) {
	f, ctx := openTestDB(t)

	ev := f.evaluationRow("ev-1")
	scores := []evaluation.Score{
		{ID: "sc-1", EvaluationID: ev.ID, RubricID: f.rubricRows[0].ID, Score: 8, Feedback: "clear", CreatedAt: ev.CreatedAt},
		{ID: "sc-2", EvaluationID: ev.ID, RubricID: f.rubricRows[1].ID, Score: 14, Feedback: "solid", CreatedAt: ev.CreatedAt},
	}

	got, err := f.store.CreateEvaluation(ctx, ev, scores)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Student == nil || got.Student.MatriculationNumber != "1234567" {
		t.Errorf("read-back should resolve the student, got %+v", got.Student)
	}
	if got.ReportType == nil || got.ReportType.Name != "Thesis" {
		t.Errorf("read-back should resolve the report type, got %+v", got.ReportType)
	}
	if len(got.Scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(got.Scores))
	}
	if got.Scores[0].Rubric == nil || got.Scores[0].Rubric.SectionName != "Introduction" {
		t.Errorf("scores should come back in display order with rubrics resolved, got %+v", got.Scores[0])
	}
	if got.TotalScore != 22 || got.MaxPossibleScore != 30 {
		t.Errorf("totals = %v/%v, want 22/30", got.TotalScore, got.MaxPossibleScore)
	}
}

func TestSQLStoreCreateIsAtomic(t *testing.T) {
	f, ctx := openTestDB(t)

	ev := f.evaluationRow("ev-atomic")
	// Second score reuses the first score's primary key, which must fail the
	// whole transaction.
	scores := []evaluation.Score{
		{ID: "sc-dup", EvaluationID: ev.ID, RubricID: f.rubricRows[0].ID, Score: 8, CreatedAt: ev.CreatedAt},
		{ID: "sc-dup", EvaluationID: ev.ID, RubricID: f.rubricRows[1].ID, Score: 14, CreatedAt: ev.CreatedAt},
	}

	if _, err := f.store.CreateEvaluation(ctx, ev, scores); err == nil {
		t.Fatal("expected duplicate-key failure")
	}

	_, err := f.store.GetEvaluation(ctx, ev.ID)
	var nf *evaluation.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("header must not survive a failed child insert, got %v", err)
	}
}

func TestSQLStoreGetUnknownEvaluation(t *testing.T) {
	f, ctx := openTestDB(t)

	_, err := f.store.GetEvaluation(ctx, "missing")
	var nf *evaluation.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestSQLStoreListFiltersAndPages(t *testing.T) {
	f, ctx := openTestDB(t)

	for i := 0; i < 3; i++ {
		ev := f.evaluationRow(fmt.Sprintf("ev-%d", i))
		ev.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		ev.UpdatedAt = ev.CreatedAt
		if i == 2 {
			ev.EvaluatorID = "u-2"
		} else {
			ev.EvaluatorID = "u-1"
		}
		scores := []evaluation.Score{
			{ID: fmt.Sprintf("sc-%d", i), EvaluationID: ev.ID, RubricID: f.rubricRows[0].ID, Score: 5, CreatedAt: ev.CreatedAt},
		}
		if _, err := f.store.CreateEvaluation(ctx, ev, scores); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	all, err := f.store.ListEvaluations(ctx, evaluation.Filter{StudentID: f.student.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d evaluations, want 3", len(all))
	}
	// Newest first.
	if all[0].ID != "ev-2" {
		t.Errorf("first = %s, want ev-2", all[0].ID)
	}

	mine, err := f.store.ListEvaluations(ctx, evaluation.Filter{EvaluatorID: "u-1"})
	if err != nil {
		t.Fatalf("list by evaluator: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("got %d for u-1, want 2", len(mine))
	}

	page, err := f.store.ListEvaluations(ctx, evaluation.Filter{StudentID: f.student.ID, Skip: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "ev-1" {
		t.Errorf("page = %+v, want just ev-1", page)
	}
}
