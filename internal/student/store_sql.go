package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("student not found")

type Student struct {
	ID                  string    `json:"id"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	MatriculationNumber string    `json:"matriculation_number"`
	CreatedAt           time.Time `json:"created_at"`
}

// ValidateMatriculationNumber enforces the institutional format: exactly
// seven digits.
func ValidateMatriculationNumber(n string) error {
	if len(n) != 7 {
		return errors.New("matriculation number must be exactly 7 characters long")
	}
	for _, c := range n {
		if c < '0' || c > '9' {
			return errors.New("matriculation number must contain only digits")
		}
	}
	return nil
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Create(ctx context.Context, st Student) (Student, error) {
	if st.FirstName == "" || st.LastName == "" {
		return Student{}, errors.New("first and last name required")
	}
	if err := ValidateMatriculationNumber(st.MatriculationNumber); err != nil {
		return Student{}, err
	}
	st.ID = uuid.NewString()
	st.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (id, first_name, last_name, matriculation_number, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		st.ID, st.FirstName, st.LastName, st.MatriculationNumber, st.CreatedAt.Unix())
	if err != nil {
		return Student{}, fmt.Errorf("create student: %w", err)
	}
	return st, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Student, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, matriculation_number, created_at FROM students WHERE id=$1`, id)
	return scan(row)
}

func (s *SQLStore) List(ctx context.Context, skip, limit int) ([]Student, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, matriculation_number, created_at
		   FROM students ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Student{}
	for rows.Next() {
		st, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (Student, error) {
	var st Student
	var created int64
	if err := row.Scan(&st.ID, &st.FirstName, &st.LastName, &st.MatriculationNumber, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, err
	}
	st.CreatedAt = time.Unix(created, 0)
	return st, nil
}
