package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"asset_lifecycle_scheduler/internal/domain/maintenance"
)

type PostgresMaintenanceRepository struct {
	db *sql.DB
}

func NewPostgresMaintenanceRepository(db *sql.DB) *PostgresMaintenanceRepository {
	return &PostgresMaintenanceRepository{db: db}
}

const maintenanceColumns = `id, asset_id, parent_id, title, description, maintenance_type, supplier, cost,
	is_recurring, COALESCE(cadence_unit, ''), COALESCE(cadence_count, 0),
	scheduled_for, next_scheduled_for, completed_at, created_at, updated_at`

func scanMaintenance(row interface{ Scan(...any) error }) (*maintenance.Record, error) {
	var (
		r    maintenance.Record
		unit string
	)
	err := row.Scan(&r.ID, &r.AssetID, &r.ParentID, &r.Title, &r.Description, &r.MaintenanceType,
		&r.Supplier, &r.Cost, &r.IsRecurring, &unit, &r.Cadence.Count,
		&r.ScheduledFor, &r.NextScheduledFor, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Cadence.Unit = maintenance.ParseCadenceUnit(unit)
	return &r, nil
}

func (r *PostgresMaintenanceRepository) GetByID(ctx context.Context, id int64) (*maintenance.Record, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance WHERE id = $1`
	rec, err := scanMaintenance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, maintenance.ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting maintenance record by ID: %w", err)
	}
	return rec, nil
}

func (r *PostgresMaintenanceRepository) ListDueRecurring(ctx context.Context, now time.Time, afterID int64, limit int) ([]*maintenance.Record, error) {
	query := `SELECT ` + maintenanceColumns + `
		FROM maintenance
		WHERE is_recurring AND next_scheduled_for IS NOT NULL AND next_scheduled_for <= $1 AND id > $2
		ORDER BY id
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, now, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing due recurring maintenance: %w", err)
	}
	defer rows.Close()

	var records []*maintenance.Record
	for rows.Next() {
		rec, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning maintenance row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating maintenance rows: %w", err)
	}
	return records, nil
}

func (r *PostgresMaintenanceRepository) CreateOccurrence(ctx context.Context, source, occurrence *maintenance.Record, next time.Time) (bool, error) {
	created := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		// The guard on the old value makes a concurrent or repeated run a no-op.
		res, err := tx.ExecContext(ctx,
			`UPDATE maintenance SET next_scheduled_for = $1, updated_at = NOW()
			 WHERE id = $2 AND next_scheduled_for = $3`,
			next, source.ID, source.NextScheduledFor.Time)
		if err != nil {
			return fmt.Errorf("error advancing maintenance %d: %w", source.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error reading affected rows: %w", err)
		}
		if n == 0 {
			return nil
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO maintenance (asset_id, parent_id, title, description, maintenance_type, supplier, cost,
				is_recurring, scheduled_for)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
			 ON CONFLICT (parent_id, scheduled_for) WHERE parent_id IS NOT NULL DO NOTHING
			 RETURNING id, created_at, updated_at`,
			occurrence.AssetID, occurrence.ParentID, occurrence.Title, occurrence.Description,
			occurrence.MaintenanceType, occurrence.Supplier, occurrence.Cost, occurrence.ScheduledFor,
		).Scan(&occurrence.ID, &occurrence.CreatedAt, &occurrence.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			// Occurrence already exists from an earlier partial run; advancing the source is still correct.
			return nil
		}
		if err != nil {
			return fmt.Errorf("error inserting occurrence for maintenance %d: %w", source.ID, err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		source.NextScheduledFor = sql.NullTime{Time: next, Valid: true}
	}
	return created, nil
}
