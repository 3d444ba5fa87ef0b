// internal/app/recurrence_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset_lifecycle_scheduler/internal/domain/maintenance"
	"asset_lifecycle_scheduler/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// DefaultBatchSize is the chunk size for keyset-paginated batch jobs.
const DefaultBatchSize = 50

// RecurrenceSummary counts the outcome of one recurrence run.
type RecurrenceSummary struct {
	Scanned int
	Created int
	Skipped int
	Failed  int
}

// RecurrenceService generates the next occurrence of recurring maintenance.
type RecurrenceService struct {
	repo      maintenance.Repository
	logger    *logrus.Entry
	batchSize int
}

func NewRecurrenceService(repo maintenance.Repository, logger *logrus.Entry) *RecurrenceService {
	return &RecurrenceService{repo: repo, logger: logger, batchSize: DefaultBatchSize}
}

// GenerateNextOccurrence creates the occurrence scheduled at rec.NextScheduledFor and moves
// the series past now. It returns ErrNotDue for records that should not produce anything.
func (s *RecurrenceService) GenerateNextOccurrence(ctx context.Context, rec *maintenance.Record, now time.Time) (bool, error) {
	if !rec.IsDue(now) {
		return false, maintenance.ErrNotDue
	}
	next, err := rec.Cadence.AdvancePast(rec.NextScheduledFor.Time, now)
	if err != nil {
		return false, err
	}
	created, err := s.repo.CreateOccurrence(ctx, rec, rec.NewOccurrence(), next)
	if err != nil {
		return false, fmt.Errorf("create occurrence: %w", err)
	}
	return created, nil
}

// RunRecurrence processes every due recurring record in chunks ordered by id.
// Per-record failures are logged and skipped; a listing failure aborts the run.
func (s *RecurrenceService) RunRecurrence(ctx context.Context, now time.Time) (RecurrenceSummary, error) {
	var sum RecurrenceSummary
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		records, err := s.repo.ListDueRecurring(ctx, now, afterID, s.batchSize)
		if err != nil {
			return sum, fmt.Errorf("list due recurring maintenance: %w", err)
		}
		for _, rec := range records {
			sum.Scanned++
			log := s.logger.WithField("maintenance_id", rec.ID)

			created, err := s.GenerateNextOccurrence(ctx, rec, now)
			switch {
			case errors.Is(err, maintenance.ErrNotDue):
				sum.Skipped++
			case errors.Is(err, maintenance.ErrInvalidCadence):
				sum.Skipped++
				log.WithError(err).WithField("cadence", rec.Cadence.String()).Warn("Skipping maintenance with malformed cadence")
			case err != nil:
				sum.Failed++
				log.WithError(err).Error("Failed to generate maintenance occurrence")
			case !created:
				sum.Skipped++
				log.Debug("Occurrence already generated by another run")
			default:
				sum.Created++
				metrics.IncOccurrenceCreated()
				log.WithField("next_scheduled_for", rec.NextScheduledFor.Time).Info("Generated maintenance occurrence")
			}
		}
		if len(records) < s.batchSize {
			break
		}
		afterID = records[len(records)-1].ID
	}
	s.logger.WithFields(logrus.Fields{
		"scanned": sum.Scanned,
		"created": sum.Created,
		"skipped": sum.Skipped,
		"failed":  sum.Failed,
	}).Info("Recurrence run finished")
	if sum.Failed > 0 {
		return sum, fmt.Errorf("%d maintenance record(s) failed", sum.Failed)
	}
	return sum, nil
}
