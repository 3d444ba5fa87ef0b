package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"asset_lifecycle_scheduler/internal/domain/report"
	"asset_lifecycle_scheduler/internal/domain/user"
	"asset_lifecycle_scheduler/internal/infra/cronexpr"
	"asset_lifecycle_scheduler/internal/infra/export"
	"asset_lifecycle_scheduler/internal/infra/mail"
	"asset_lifecycle_scheduler/internal/infra/metrics"
	"asset_lifecycle_scheduler/internal/infra/notify"

	"github.com/sirupsen/logrus"
)

// ReportTemplates renders the scheduled report email.
type ReportTemplates interface {
	ForReport(r *report.SavedReport, res *report.Result, now time.Time) (notify.Message, error)
}

// ReportSummary counts the outcome of one scheduler tick.
type ReportSummary struct {
	Scanned int
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

// ReportRunner executes saved reports whose cron schedule is due and mails them to the owner.
type ReportRunner struct {
	reports   report.Repository
	executor  report.QueryExecutor
	matcher   *cronexpr.Matcher
	templates ReportTemplates
	mailer    notify.Channel
	defaultTZ string
	logger    *logrus.Entry
	batchSize int
}

func NewReportRunner(
	reports report.Repository,
	executor report.QueryExecutor,
	matcher *cronexpr.Matcher,
	templates ReportTemplates,
	mailer notify.Channel,
	defaultTZ string,
	logger *logrus.Entry,
) *ReportRunner {
	return &ReportRunner{
		reports:   reports,
		executor:  executor,
		matcher:   matcher,
		templates: templates,
		mailer:    mailer,
		defaultTZ: defaultTZ,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
}

// IsDue applies the cron match and the same-minute dedup in the owner's zone.
func (r *ReportRunner) IsDue(sr *report.SavedReport, now time.Time) bool {
	if !sr.Scheduled() {
		return false
	}
	log := r.logger.WithField("report_id", sr.ID)
	loc := cronexpr.ResolveLocation(log, sr.Owner.Timezone.String, r.defaultTZ)
	if !r.matcher.IsDue(sr.ScheduleCron.String, now, loc) {
		return false
	}
	if sr.LastRunAt.Valid && cronexpr.SameMinute(sr.LastRunAt.Time, now, loc) {
		return false
	}
	return true
}

// RunScheduled runs every due report once. Malformed reports are logged and skipped;
// query and delivery failures are counted and returned after the batch.
func (r *ReportRunner) RunScheduled(ctx context.Context, now time.Time) (ReportSummary, error) {
	var sum ReportSummary
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		page, err := r.reports.ListScheduled(ctx, afterID, r.batchSize)
		if err != nil {
			return sum, fmt.Errorf("list scheduled reports: %w", err)
		}
		for _, sr := range page {
			sum.Scanned++
			if !r.IsDue(sr, now) {
				continue
			}
			sum.Due++
			log := r.logger.WithFields(logrus.Fields{"report_id": sr.ID, "family": sr.Family})

			err := r.RunReport(ctx, sr, now)
			switch {
			case err == nil:
				sum.Sent++
				metrics.IncReportRun(metrics.ResultSuccess)
			case errors.Is(err, report.ErrUnknownFamily), errors.Is(err, report.ErrInvalidDefinition):
				sum.Skipped++
				metrics.IncReportRun(metrics.ResultSkipped)
				log.WithError(err).Warn("Skipping malformed report")
			default:
				sum.Failed++
				metrics.IncReportRun(metrics.ResultError)
				log.WithError(err).Error("Scheduled report failed")
			}
		}
		if len(page) < r.batchSize {
			break
		}
		afterID = page[len(page)-1].ID
	}
	if sum.Due > 0 {
		r.logger.WithFields(logrus.Fields{
			"due":     sum.Due,
			"sent":    sum.Sent,
			"skipped": sum.Skipped,
			"failed":  sum.Failed,
		}).Info("Scheduled reports finished")
	}
	if sum.Failed > 0 {
		return sum, fmt.Errorf("%d scheduled report(s) failed", sum.Failed)
	}
	return sum, nil
}

// RunReport executes sr, mails the result to its owner and records last_run_at.
func (r *ReportRunner) RunReport(ctx context.Context, sr *report.SavedReport, now time.Time) error {
	log := r.logger.WithField("report_id", sr.ID)

	def, err := report.LookupDefinition(sr.Family)
	if err != nil {
		return err
	}
	filters, err := sr.Filters()
	if err != nil {
		return err
	}
	if unknown := report.UnknownFilters(def, filters); len(unknown) > 0 {
		log.WithField("filters", unknown).Warn("Ignoring unknown report filters")
	}
	if err := report.ValidateFilters(def, filters); err != nil {
		return err
	}

	res, err := r.executor.Execute(ctx, def, filters)
	if err != nil {
		return fmt.Errorf("execute report: %w", err)
	}

	msg, err := r.templates.ForReport(sr, res, now)
	if err != nil {
		return err
	}
	workbook, err := export.BuildReportXLSX(sr.Name, def.Family, res, now)
	if err != nil {
		log.WithError(err).Warn("Could not build spreadsheet, sending without attachment")
	} else {
		msg.Attachments = append(msg.Attachments, mail.Attachment{
			Filename:    attachmentName(sr.Name, now),
			ContentType: export.XLSXContentType,
			Data:        workbook,
		})
	}

	owner := &user.User{ID: sr.Owner.ID, Name: sr.Owner.Name, Email: sr.Owner.Email, Timezone: sr.Owner.Timezone}
	if !r.mailer.Accepts(owner) {
		return fmt.Errorf("owner %d has no email address", owner.ID)
	}
	if err := r.mailer.Send(ctx, owner, msg); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	if err := r.reports.UpdateLastRunAt(ctx, sr.ID, now); err != nil {
		return fmt.Errorf("record last run: %w", err)
	}
	sr.LastRunAt.Time, sr.LastRunAt.Valid = now, true
	log.WithField("rows", res.Len()).Info("Scheduled report sent")
	return nil
}

func attachmentName(name string, now time.Time) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(name))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "report"
	}
	return fmt.Sprintf("%s-%s.xlsx", slug, now.Format("20060102-1504"))
}
