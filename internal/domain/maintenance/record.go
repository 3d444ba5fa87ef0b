// internal/domain/maintenance/record.go
package maintenance

import (
	"database/sql"
	"errors"
	"time"
)

var (
	ErrRecordNotFound = errors.New("maintenance record not found")
	// ErrNotDue is returned when a record is not recurring or its next occurrence is still in the future.
	ErrNotDue = errors.New("maintenance record is not due for a new occurrence")
)

// Record is a row of the 'maintenance' table. A recurring record acts as the
// template of its series; generated occurrences point back to it through ParentID.
type Record struct {
	ID               int64
	AssetID          int64
	ParentID         sql.NullInt64 // Set on occurrences generated from a recurring record
	Title            string
	Description      sql.NullString
	MaintenanceType  string // e.g. "Preventive", "Calibration"
	Supplier         sql.NullString
	Cost             sql.NullFloat64
	IsRecurring      bool
	Cadence          Cadence
	ScheduledFor     sql.NullTime
	NextScheduledFor sql.NullTime
	CompletedAt      sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsDue reports whether a new occurrence should be generated at now.
func (r *Record) IsDue(now time.Time) bool {
	if !r.IsRecurring || !r.NextScheduledFor.Valid {
		return false
	}
	return !r.NextScheduledFor.Time.After(now)
}

// NewOccurrence copies the descriptive fields of a recurring record into a one-off
// occurrence scheduled at the record's current next_scheduled_for.
func (r *Record) NewOccurrence() *Record {
	return &Record{
		AssetID:         r.AssetID,
		ParentID:        sql.NullInt64{Int64: r.ID, Valid: true},
		Title:           r.Title,
		Description:     r.Description,
		MaintenanceType: r.MaintenanceType,
		Supplier:        r.Supplier,
		Cost:            r.Cost,
		IsRecurring:     false,
		ScheduledFor:    r.NextScheduledFor,
	}
}
