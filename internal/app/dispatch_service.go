package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset_lifecycle_scheduler/internal/domain/alert"
	"asset_lifecycle_scheduler/internal/domain/user"
	"asset_lifecycle_scheduler/internal/infra/metrics"
	"asset_lifecycle_scheduler/internal/infra/notify"

	"github.com/sirupsen/logrus"
)

// DefaultDispatchWindow is how far back unsent alerts are still delivered.
const DefaultDispatchWindow = 7 * 24 * time.Hour

// AlertTemplates renders the message for one alert and recipient.
type AlertTemplates interface {
	Handles(t alert.Type) bool
	ForAlert(a *alert.Alert, recipient *user.User, now time.Time) (notify.Message, bool, error)
}

// DispatcherConfig names the alert types a dispatcher owns and who receives them.
type DispatcherConfig struct {
	Name      string
	Types     []alert.Type
	Audience  user.Audience
	Window    time.Duration
	BatchSize int
}

// DefaultDispatchers routes asset alerts to admins and managers and the people
// workflows to holders of the matching permission.
func DefaultDispatchers(window time.Duration) []DispatcherConfig {
	return []DispatcherConfig{
		{
			Name:     "assets",
			Types:    alert.AssetTypes(),
			Audience: user.Audience{Roles: []string{"Admin", "Manager"}},
			Window:   window,
		},
		{
			Name:     "clearances",
			Types:    []alert.Type{alert.TypeClearanceDue},
			Audience: user.Audience{Permissions: []string{"clearances.manage"}},
			Window:   window,
		},
		{
			Name:     "people",
			Types:    []alert.Type{alert.TypeStaffExit},
			Audience: user.Audience{Permissions: []string{"users.manage"}},
			Window:   window,
		},
	}
}

// DispatchSummary counts the outcome of one dispatcher run.
type DispatchSummary struct {
	Alerts        int
	Marked        int
	Unmapped      int
	Notifications int
	Failures      int
}

// AlertDispatcher turns pending alerts into notifications, marking each alert sent once.
type AlertDispatcher struct {
	cfg       DispatcherConfig
	alerts    alert.Repository
	users     user.Repository
	templates AlertTemplates
	channels  []notify.Channel
	logger    *logrus.Entry
}

func NewAlertDispatcher(cfg DispatcherConfig, alerts alert.Repository, users user.Repository, templates AlertTemplates, channels []notify.Channel, logger *logrus.Entry) *AlertDispatcher {
	if cfg.Window <= 0 {
		cfg.Window = DefaultDispatchWindow
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &AlertDispatcher{
		cfg:       cfg,
		alerts:    alerts,
		users:     users,
		templates: templates,
		channels:  channels,
		logger:    logger.WithField("dispatcher", cfg.Name),
	}
}

func (d *AlertDispatcher) Name() string { return d.cfg.Name }

// Unmapped returns handled types that have no template.
func (d *AlertDispatcher) Unmapped() []alert.Type {
	var out []alert.Type
	for _, t := range d.cfg.Types {
		if !d.templates.Handles(t) {
			out = append(out, t)
		}
	}
	return out
}

// DispatchPending sends every unsent alert created within the window, earliest due first.
// Each alert is marked sent after its recipients were attempted, even if a send failed,
// so no alert is delivered twice. Failed sends are returned as an error after the run.
func (d *AlertDispatcher) DispatchPending(ctx context.Context, now time.Time) (DispatchSummary, error) {
	var sum DispatchSummary
	q := alert.PendingQuery{
		Types:        d.cfg.Types,
		CreatedSince: now.Add(-d.cfg.Window),
		Until:        now,
		Limit:        d.cfg.BatchSize,
	}

	var recipients []*user.User
	resolved := false
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		page, err := d.alerts.ListPending(ctx, q)
		if err != nil {
			return sum, fmt.Errorf("list pending alerts: %w", err)
		}
		if len(page) == 0 {
			break
		}

		if !resolved {
			recipients, err = d.users.ListByAudience(ctx, d.cfg.Audience)
			if err != nil {
				return sum, fmt.Errorf("resolve recipients: %w", err)
			}
			resolved = true
			if len(recipients) == 0 {
				d.logger.WithField("pending", len(page)).Debug("No recipients for pending alerts")
				return sum, nil
			}
		}

		for _, a := range page {
			sum.Alerts++
			d.dispatchOne(ctx, a, recipients, now, &sum)
		}

		if len(page) < q.Limit {
			break
		}
		last := page[len(page)-1]
		q.AfterDue, q.AfterID = last.DueDate, last.ID
	}

	if sum.Alerts > 0 {
		d.logger.WithFields(logrus.Fields{
			"alerts":        sum.Alerts,
			"marked":        sum.Marked,
			"unmapped":      sum.Unmapped,
			"notifications": sum.Notifications,
			"failures":      sum.Failures,
		}).Info("Alert dispatch finished")
	}
	if sum.Failures > 0 {
		return sum, fmt.Errorf("%d notification(s) failed", sum.Failures)
	}
	return sum, nil
}

func (d *AlertDispatcher) dispatchOne(ctx context.Context, a *alert.Alert, recipients []*user.User, now time.Time, sum *DispatchSummary) {
	log := d.logger.WithFields(logrus.Fields{"alert_id": a.ID, "alert_type": a.Type})
	if !d.templates.Handles(a.Type) {
		sum.Unmapped++
		log.Warn("No notification template for alert type, leaving it unsent")
		return
	}

	for _, u := range recipients {
		msg, _, err := d.templates.ForAlert(a, u, now)
		if err != nil {
			sum.Failures++
			log.WithError(err).WithField("user_id", u.ID).Error("Failed to render alert notification")
			continue
		}
		sent := false
		for _, ch := range d.channels {
			if !ch.Accepts(u) {
				continue
			}
			if err := ch.Send(ctx, u, msg); err != nil {
				sum.Failures++
				metrics.IncNotification(ch.Name(), metrics.ResultError)
				log.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "channel": ch.Name()}).Error("Failed to send alert notification")
				continue
			}
			sent = true
			metrics.IncNotification(ch.Name(), metrics.ResultSuccess)
		}
		if sent {
			sum.Notifications++
		}
	}

	marked, err := d.alerts.MarkSent(ctx, a.ID, now)
	if err != nil {
		sum.Failures++
		log.WithError(err).Error("Failed to mark alert sent")
		return
	}
	if !marked {
		log.Debug("Alert already marked sent by another run")
		return
	}
	sum.Marked++
	metrics.IncAlertSent(d.cfg.Name)
}

// DispatchService runs every configured dispatcher.
type DispatchService struct {
	dispatchers []*AlertDispatcher
	logger      *logrus.Entry
}

func NewDispatchService(dispatchers []*AlertDispatcher, logger *logrus.Entry) *DispatchService {
	return &DispatchService{dispatchers: dispatchers, logger: logger}
}

// Unmapped lists handled alert types without a template across all dispatchers.
func (s *DispatchService) Unmapped() []alert.Type {
	var out []alert.Type
	for _, d := range s.dispatchers {
		out = append(out, d.Unmapped()...)
	}
	return out
}

// DispatchAll runs each dispatcher; one failing does not stop the others.
func (s *DispatchService) DispatchAll(ctx context.Context, now time.Time) error {
	var errs []error
	for _, d := range s.dispatchers {
		if _, err := d.DispatchPending(ctx, now); err != nil {
			s.logger.WithError(err).WithField("dispatcher", d.Name()).Error("Alert dispatcher failed")
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
		}
	}
	return errors.Join(errs...)
}
