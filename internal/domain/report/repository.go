package report

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*SavedReport, error)
	// ListScheduled returns reports with a schedule_cron, ordered by id after afterID.
	ListScheduled(ctx context.Context, afterID int64, limit int) ([]*SavedReport, error)
	UpdateLastRunAt(ctx context.Context, id int64, at time.Time) error
}

// QueryExecutor runs a definition with a report's filter values.
type QueryExecutor interface {
	Execute(ctx context.Context, def Definition, filters map[string]any) (*Result, error)
}
