// internal/domain/alert/alert.go
package alert

import (
	"database/sql"
	"errors"
	"time"
)

var ErrAlertNotFound = errors.New("alert not found")

// Alert is a persisted fact that a tracked condition needs attention.
// Corresponds to the 'alerts' table. At most one unsent alert exists per (type, subject_type, subject_id).
type Alert struct {
	ID          int64
	Type        Type
	SubjectType SubjectType
	SubjectID   int64
	AssetID     sql.NullInt64
	Title       string
	DueDate     time.Time
	Sent        bool
	SentAt      sql.NullTime
	CreatedAt   time.Time
}

// Candidate is a source row that crossed a rule's threshold.
type Candidate struct {
	SubjectType SubjectType
	SubjectID   int64
	AssetID     sql.NullInt64
	Title       string
	DueDate     time.Time
}

// ToAlert builds the unsent alert a rule raises for the candidate.
func (c Candidate) ToAlert(t Type) *Alert {
	return &Alert{
		Type:        t,
		SubjectType: c.SubjectType,
		SubjectID:   c.SubjectID,
		AssetID:     c.AssetID,
		Title:       c.Title,
		DueDate:     c.DueDate,
	}
}

// DaysUntilDue counts calendar days in loc from now to the due date. It is zero on
// the due day and negative once that day has passed.
func (a *Alert) DaysUntilDue(now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return int(civilDate(a.DueDate, loc).Sub(civilDate(now, loc)).Hours() / 24)
}

// civilDate maps t to midnight UTC of its calendar date in loc so day arithmetic ignores DST.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
