package evaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/student"
)

// Store is the persistence boundary for evaluations. CreateEvaluation must
// persist the header and every child score as one atomic unit and return
// the read-back record with associations resolved.
type Store interface {
	CreateEvaluation(ctx context.Context, ev Evaluation, scores []Score) (Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	ListEvaluations(ctx context.Context, f Filter) ([]Evaluation, error)
}

// Filter narrows and pages evaluation listings. Results are always ordered
// by creation time descending.
type Filter struct {
	StudentID   string
	EvaluatorID string
	Skip        int
	Limit       int
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateEvaluation(ctx context.Context, ev Evaluation, scores []Score) (Evaluation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Evaluation{}, err
	}
	defer tx.Rollback()

	var evaluator any
	if ev.EvaluatorID != "" {
		evaluator = ev.EvaluatorID
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO evaluations
		   (id, student_id, report_type_id, report_title, seminar_date, seminar_time,
		    total_score, max_possible_score, evaluation_method, evaluator_id, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		ev.ID, ev.StudentID, ev.ReportTypeID, ev.ReportTitle, ev.SeminarDate, ev.SeminarTime,
		ev.TotalScore, ev.MaxPossibleScore, string(ev.Method), evaluator,
		ev.CreatedAt.Unix(), ev.UpdatedAt.Unix())
	if err != nil {
		return Evaluation{}, fmt.Errorf("insert evaluation: %w", err)
	}

	for _, sc := range scores {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO evaluation_scores (id, evaluation_id, rubric_id, score, feedback, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			sc.ID, ev.ID, sc.RubricID, sc.Score, sc.Feedback, sc.CreatedAt.Unix())
		if err != nil {
			return Evaluation{}, fmt.Errorf("insert evaluation score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Evaluation{}, err
	}
	return s.GetEvaluation(ctx, ev.ID)
}

func (s *SQLStore) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT e.id, e.student_id, e.report_type_id, e.report_title,
		        COALESCE(e.seminar_date,''), COALESCE(e.seminar_time,''),
		        e.total_score, e.max_possible_score, e.evaluation_method,
		        COALESCE(e.evaluator_id,''), e.created_at, e.updated_at,
		        s.first_name, s.last_name, s.matriculation_number, s.created_at,
		        rt.name, rt.description, rt.created_at
		   FROM evaluations e
		   JOIN students s ON s.id = e.student_id
		   JOIN report_types rt ON rt.id = e.report_type_id
		  WHERE e.id=$1`, id)

	ev, err := scanEvaluation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Evaluation{}, &NotFoundError{Kind: "evaluation", ID: id}
		}
		return Evaluation{}, err
	}

	scores, err := s.loadScores(ctx, ev.ID)
	if err != nil {
		return Evaluation{}, err
	}
	ev.Scores = scores
	return ev, nil
}

func (s *SQLStore) ListEvaluations(ctx context.Context, f Filter) ([]Evaluation, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	q := `SELECT e.id, e.student_id, e.report_type_id, e.report_title,
	             COALESCE(e.seminar_date,''), COALESCE(e.seminar_time,''),
	             e.total_score, e.max_possible_score, e.evaluation_method,
	             COALESCE(e.evaluator_id,''), e.created_at, e.updated_at,
	             s.first_name, s.last_name, s.matriculation_number, s.created_at,
	             rt.name, rt.description, rt.created_at
	        FROM evaluations e
	        JOIN students s ON s.id = e.student_id
	        JOIN report_types rt ON rt.id = e.report_type_id`
	args := []any{}
	n := 0
	where := ""
	if f.StudentID != "" {
		n++
		where += fmt.Sprintf(" WHERE e.student_id=$%d", n)
		args = append(args, f.StudentID)
	}
	if f.EvaluatorID != "" {
		n++
		if where == "" {
			where = fmt.Sprintf(" WHERE e.evaluator_id=$%d", n)
		} else {
			where += fmt.Sprintf(" AND e.evaluator_id=$%d", n)
		}
		args = append(args, f.EvaluatorID)
	}
	q += where + fmt.Sprintf(" ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, f.Skip)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Evaluation{}
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLStore) loadScores(ctx context.Context, evaluationID string) ([]Score, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sc.id, sc.evaluation_id, sc.rubric_id, sc.score, sc.feedback, sc.created_at,
		        r.report_type_id, r.section_name, r.max_points, r.description, r.criteria_json, r.display_order, r.created_at
		   FROM evaluation_scores sc
		   JOIN rubrics r ON r.id = sc.rubric_id
		  WHERE sc.evaluation_id=$1
		  ORDER BY r.display_order ASC`, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		var sc Score
		var r rubric.Rubric
		var criteria string
		var scCreated, rCreated int64
		if err := rows.Scan(&sc.ID, &sc.EvaluationID, &sc.RubricID, &sc.Score, &sc.Feedback, &scCreated,
			&r.ReportTypeID, &r.SectionName, &r.MaxPoints, &r.Description, &criteria, &r.DisplayOrder, &rCreated); err != nil {
			return nil, err
		}
		r.ID = sc.RubricID
		if criteria != "" {
			_ = json.Unmarshal([]byte(criteria), &r.Criteria)
		}
		sc.CreatedAt = time.Unix(scCreated, 0)
		r.CreatedAt = time.Unix(rCreated, 0)
		sc.Rubric = &r
		out = append(out, sc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (Evaluation, error) {
	var ev Evaluation
	var method string
	var created, updated, stCreated, rtCreated int64
	var st student.Student
	var rt rubric.ReportType

	err := row.Scan(&ev.ID, &ev.StudentID, &ev.ReportTypeID, &ev.ReportTitle,
		&ev.SeminarDate, &ev.SeminarTime,
		&ev.TotalScore, &ev.MaxPossibleScore, &method,
		&ev.EvaluatorID, &created, &updated,
		&st.FirstName, &st.LastName, &st.MatriculationNumber, &stCreated,
		&rt.Name, &rt.Description, &rtCreated)
	if err != nil {
		return Evaluation{}, err
	}
	ev.Method = Method(method)
	ev.CreatedAt = time.Unix(created, 0)
	ev.UpdatedAt = time.Unix(updated, 0)

	st.ID = ev.StudentID
	st.CreatedAt = time.Unix(stCreated, 0)
	ev.Student = &st

	rt.ID = ev.ReportTypeID
	rt.CreatedAt = time.Unix(rtCreated, 0)
	ev.ReportType = &rt
	return ev, nil
}
