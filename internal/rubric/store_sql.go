package rubric

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// Store is the catalog surface the scoring core depends on. Rubrics are
// append-only in steady state; nothing here mutates existing rows.
type Store interface {
	ListRubrics(ctx context.Context, reportTypeID string) ([]Rubric, error)
	GetReportType(ctx context.Context, id string) (ReportType, error)
	ListReportTypes(ctx context.Context) ([]ReportType, error)
	CreateReportType(ctx context.Context, name, description string) (ReportType, error)
	CreateRubric(ctx context.Context, r Rubric) (Rubric, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) ListRubrics(ctx context.Context, reportTypeID string) ([]Rubric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, report_type_id, section_name, max_points, description, criteria_json, display_order, created_at
		   FROM rubrics WHERE report_type_id=$1 ORDER BY display_order ASC`, reportTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rubric
	for rows.Next() {
		r, err := scanRubric(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetReportType(ctx context.Context, id string) (ReportType, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM report_types WHERE id=$1`, id)
	return scanReportType(row)
}

func (s *SQLStore) GetReportTypeByName(ctx context.Context, name string) (ReportType, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM report_types WHERE name=$1`, name)
	return scanReportType(row)
}

func (s *SQLStore) ListReportTypes(ctx context.Context) ([]ReportType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM report_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportType
	for rows.Next() {
		var rt ReportType
		var created int64
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Description, &created); err != nil {
			return nil, err
		}
		rt.CreatedAt = time.Unix(created, 0)
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateReportType(ctx context.Context, name, description string) (ReportType, error) {
	rt := ReportType{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_types (id, name, description, created_at) VALUES ($1,$2,$3,$4)`,
		rt.ID, rt.Name, rt.Description, rt.CreatedAt.Unix())
	if err != nil {
		return ReportType{}, err
	}
	return rt, nil
}

func (s *SQLStore) CreateRubric(ctx context.Context, r Rubric) (Rubric, error) {
	if r.MaxPoints <= 0 {
		return Rubric{}, fmt.Errorf("rubric %q: max_points must be positive", r.SectionName)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Criteria == nil {
		r.Criteria = map[string]string{}
	}
	cj, err := json.Marshal(r.Criteria)
	if err != nil {
		return Rubric{}, err
	}
	r.CreatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rubrics (id, report_type_id, section_name, max_points, description, criteria_json, display_order, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.ReportTypeID, r.SectionName, r.MaxPoints, r.Description, string(cj), r.DisplayOrder, r.CreatedAt.Unix())
	if err != nil {
		return Rubric{}, err
	}
	return r, nil
}

// Statistics aggregates stored evaluation totals for one report type.
func (s *SQLStore) Statistics(ctx context.Context, reportTypeID string) (Statistics, error) {
	rt, err := s.GetReportType(ctx, reportTypeID)
	if err != nil {
		return Statistics{}, err
	}
	st := Statistics{ReportTypeID: rt.ID, ReportTypeName: rt.Name}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(total_score),0),
		        COALESCE(AVG(max_possible_score),0),
		        COALESCE(MIN(total_score),0),
		        COALESCE(MAX(total_score),0)
		   FROM evaluations WHERE report_type_id=$1`, reportTypeID)
	var avgMax float64
	if err := row.Scan(&st.TotalEvaluations, &st.AverageScore, &avgMax, &st.MinScore, &st.MaxScore); err != nil {
		return Statistics{}, err
	}
	st.MaxPossibleScore = avgMax
	if avgMax > 0 {
		st.AveragePercentage = st.AverageScore / avgMax * 100
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRubric(row rowScanner) (Rubric, error) {
	var r Rubric
	var criteria string
	var created int64
	if err := row.Scan(&r.ID, &r.ReportTypeID, &r.SectionName, &r.MaxPoints, &r.Description, &criteria, &r.DisplayOrder, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rubric{}, ErrNotFound
		}
		return Rubric{}, err
	}
	if criteria != "" {
		if err := json.Unmarshal([]byte(criteria), &r.Criteria); err != nil {
			r.Criteria = nil
		}
	}
	r.CreatedAt = time.Unix(created, 0)
	return r, nil
}

func scanReportType(row rowScanner) (ReportType, error) {
	var rt ReportType
	var created int64
	if err := row.Scan(&rt.ID, &rt.Name, &rt.Description, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReportType{}, ErrNotFound
		}
		return ReportType{}, err
	}
	rt.CreatedAt = time.Unix(created, 0)
	return rt, nil
}
