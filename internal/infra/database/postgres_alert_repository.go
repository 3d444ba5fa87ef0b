package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"asset_lifecycle_scheduler/internal/domain/alert"

	"github.com/lib/pq"
)

type PostgresAlertRepository struct {
	db *sql.DB
}

func NewPostgresAlertRepository(db *sql.DB) *PostgresAlertRepository {
	return &PostgresAlertRepository{db: db}
}

// EnsureOpen relies on two unique keys: alerts_open_unique keeps one unsent alert per
// condition and subject, alerts_condition_unique stops a sent alert from being raised again.
func (r *PostgresAlertRepository) EnsureOpen(ctx context.Context, a *alert.Alert) (bool, error) {
	query := `INSERT INTO alerts (type, subject_type, subject_id, asset_id, title, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
		RETURNING id, sent, created_at`
	err := r.db.QueryRowContext(ctx, query, a.Type, a.SubjectType, a.SubjectID, a.AssetID, a.Title, a.DueDate).
		Scan(&a.ID, &a.Sent, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error creating alert %s for %s %d: %w", a.Type, a.SubjectType, a.SubjectID, err)
	}
	return true, nil
}

func (r *PostgresAlertRepository) ListPending(ctx context.Context, q alert.PendingQuery) ([]*alert.Alert, error) {
	types := make([]string, len(q.Types))
	for i, t := range q.Types {
		types[i] = string(t)
	}
	query := `SELECT id, type, subject_type, subject_id, asset_id, title, due_date, sent, sent_at, created_at
		FROM alerts
		WHERE NOT sent
		  AND type = ANY($1)
		  AND created_at >= $2 AND created_at <= $3
		  AND (due_date, id) > ($4, $5)
		ORDER BY due_date, id
		LIMIT $6`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(types), q.CreatedSince, q.Until, q.AfterDue, q.AfterID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("error listing pending alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		var a alert.Alert
		if err := rows.Scan(&a.ID, &a.Type, &a.SubjectType, &a.SubjectID, &a.AssetID, &a.Title,
			&a.DueDate, &a.Sent, &a.SentAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning alert row: %w", err)
		}
		alerts = append(alerts, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}
	return alerts, nil
}

func (r *PostgresAlertRepository) MarkSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE alerts SET sent = TRUE, sent_at = $1 WHERE id = $2 AND NOT sent`, at, id)
	if err != nil {
		return false, fmt.Errorf("error marking alert %d sent: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n == 1, nil
}
