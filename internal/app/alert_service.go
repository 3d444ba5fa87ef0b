package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset_lifecycle_scheduler/internal/domain/alert"
	"asset_lifecycle_scheduler/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// AlertEvaluator runs every alert rule and records new alerts. It never sends anything.
type AlertEvaluator struct {
	rules     []alert.Rule
	sources   alert.SourceReader
	alerts    alert.Repository
	logger    *logrus.Entry
	batchSize int
}

func NewAlertEvaluator(rules []alert.Rule, sources alert.SourceReader, alerts alert.Repository, logger *logrus.Entry) *AlertEvaluator {
	return &AlertEvaluator{
		rules:     rules,
		sources:   sources,
		alerts:    alerts,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
}

// EvaluateRules runs each rule independently and returns how many alerts each type created.
// A failing rule is logged and reported in the returned error; the others still run.
func (e *AlertEvaluator) EvaluateRules(ctx context.Context, now time.Time) (map[alert.Type]int, error) {
	created := make(map[alert.Type]int, len(e.rules))
	var errs []error
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		n, err := e.evaluate(ctx, rule, now)
		created[rule.Type] = n
		metrics.AddAlertsCreated(string(rule.Type), n)
		log := e.logger.WithFields(logrus.Fields{"alert_type": rule.Type, "created": n})
		if err != nil {
			log.WithError(err).Error("Alert rule failed")
			errs = append(errs, fmt.Errorf("%s: %w", rule.Type, err))
			continue
		}
		log.Debug("Alert rule evaluated")
	}
	return created, errors.Join(errs...)
}

func (e *AlertEvaluator) evaluate(ctx context.Context, rule alert.Rule, now time.Time) (int, error) {
	created := 0
	var afterID int64
	for {
		candidates, err := e.sources.ListCandidates(ctx, alert.CandidateQuery{
			Rule:    rule,
			Now:     now,
			AfterID: afterID,
			Limit:   e.batchSize,
		})
		if err != nil {
			return created, err
		}
		for _, c := range candidates {
			ok, err := e.alerts.EnsureOpen(ctx, c.ToAlert(rule.Type))
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
		if len(candidates) < e.batchSize {
			return created, nil
		}
		afterID = candidates[len(candidates)-1].SubjectID
	}
}
