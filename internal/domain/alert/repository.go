package alert

import (
	"context"
	"time"
)

// Repository persists alerts.
type Repository interface {
	// EnsureOpen inserts a unless an unsent alert of the same type and subject exists,
	// whatever its due date, or an alert with the same type, subject and due date was already sent.
	// Existing alerts are left untouched.
	EnsureOpen(ctx context.Context, a *Alert) (created bool, err error)
	// ListPending returns unsent alerts of the given types created at or after createdSince,
	// earliest due date first, keyset-paginated on (due_date, id).
	ListPending(ctx context.Context, q PendingQuery) ([]*Alert, error)
	// MarkSent flips sent to true only if it is still false.
	MarkSent(ctx context.Context, id int64, at time.Time) (bool, error)
}

// PendingQuery selects a page of unsent alerts.
type PendingQuery struct {
	Types        []Type
	CreatedSince time.Time
	Until        time.Time
	AfterDue     time.Time
	AfterID      int64
	Limit        int
}

// SourceReader reads subjects that cross a rule's threshold.
type SourceReader interface {
	ListCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)
}

// CandidateQuery pages through one rule's source table by subject id.
type CandidateQuery struct {
	Rule    Rule
	Now     time.Time
	AfterID int64
	Limit   int
}
