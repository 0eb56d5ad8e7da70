// Package audit appends operational events to the event_log table. Entries
// are best-effort: a failed append never fails the operation it records.
package audit

import (
	"context"
	"database/sql"
	"time"
)

type Event struct {
	Type     string // e.g. EvaluationCreated
	Key      string // natural key, e.g. evaluation id
	DataJSON string
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}
