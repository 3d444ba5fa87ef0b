package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PostgresWarrantyRepository struct {
	db *sql.DB
}

func NewPostgresWarrantyRepository(db *sql.DB) *PostgresWarrantyRepository {
	return &PostgresWarrantyRepository{db: db}
}

// ExpireEnded flips active warranties whose end date has passed to expired.
func (r *PostgresWarrantyRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE warranties SET status = 'expired' WHERE status = 'active' AND end_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("error expiring warranties: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}
