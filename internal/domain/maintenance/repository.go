package maintenance

import (
	"context"
	"time"
)

// Repository defines persistence for maintenance records.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Record, error)
	// ListDueRecurring returns recurring records with next_scheduled_for <= now and id > afterID,
	// ordered by id, at most limit rows. Used for keyset pagination over large tables.
	ListDueRecurring(ctx context.Context, now time.Time, afterID int64, limit int) ([]*Record, error)
	// CreateOccurrence inserts occurrence and moves source.next_scheduled_for to next in one
	// transaction. created is false when another run already advanced the source.
	CreateOccurrence(ctx context.Context, source *Record, occurrence *Record, next time.Time) (created bool, err error)
}
