package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"asset_lifecycle_scheduler/internal/domain/report"
)

type PostgresReportRepository struct {
	db *sql.DB
}

func NewPostgresReportRepository(db *sql.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

const savedReportColumns = `r.id, r.name, r.family, r.definition_json, r.schedule_cron, r.last_run_at, r.created_at,
	u.id, u.name, u.email, u.timezone`

func scanSavedReport(row interface{ Scan(...any) error }) (*report.SavedReport, error) {
	var sr report.SavedReport
	err := row.Scan(&sr.ID, &sr.Name, &sr.Family, &sr.DefinitionJSON, &sr.ScheduleCron, &sr.LastRunAt, &sr.CreatedAt,
		&sr.Owner.ID, &sr.Owner.Name, &sr.Owner.Email, &sr.Owner.Timezone)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

func (r *PostgresReportRepository) GetByID(ctx context.Context, id int64) (*report.SavedReport, error) {
	query := `SELECT ` + savedReportColumns + `
		FROM saved_reports r JOIN users u ON u.id = r.owner_id
		WHERE r.id = $1`
	sr, err := scanSavedReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, report.ErrReportNotFound
		}
		return nil, fmt.Errorf("error getting saved report by ID: %w", err)
	}
	return sr, nil
}

func (r *PostgresReportRepository) ListScheduled(ctx context.Context, afterID int64, limit int) ([]*report.SavedReport, error) {
	query := `SELECT ` + savedReportColumns + `
		FROM saved_reports r JOIN users u ON u.id = r.owner_id
		WHERE r.schedule_cron IS NOT NULL AND r.schedule_cron <> '' AND r.id > $1
		ORDER BY r.id
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing scheduled reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.SavedReport
	for rows.Next() {
		sr, err := scanSavedReport(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning saved report row: %w", err)
		}
		reports = append(reports, sr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved report rows: %w", err)
	}
	return reports, nil
}

func (r *PostgresReportRepository) UpdateLastRunAt(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE saved_reports SET last_run_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("error updating last_run_at for report %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

// PostgresReportExecutor runs report definitions against the live tables.
type PostgresReportExecutor struct {
	db *sql.DB
}

func NewPostgresReportExecutor(db *sql.DB) *PostgresReportExecutor {
	return &PostgresReportExecutor{db: db}
}

func (e *PostgresReportExecutor) Execute(ctx context.Context, def report.Definition, filters map[string]any) (*report.Result, error) {
	q, err := report.BuildQuery(def, filters)
	if err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("error running %s report: %w", def.Family, err)
	}
	defer rows.Close()

	res := &report.Result{Columns: def.Labels()}
	width := len(def.Columns)
	for rows.Next() {
		if len(res.Rows) == report.MaxRows {
			res.Truncated = true
			break
		}
		raw := make([]any, width)
		dest := make([]any, width)
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning %s report row: %w", def.Family, err)
		}
		cells := make([]string, width)
		for i, v := range raw {
			cells[i] = formatCell(v)
		}
		res.Rows = append(res.Rows, cells)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s report rows: %w", def.Family, err)
	}
	return res, nil
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04")
	case []byte:
		return strings.TrimSpace(string(t))
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(t)
	}
}
