package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"asset_lifecycle_scheduler/internal/app"
	"asset_lifecycle_scheduler/internal/domain/alert"
	"asset_lifecycle_scheduler/internal/infra/config"
	"asset_lifecycle_scheduler/internal/infra/cronexpr"
	"asset_lifecycle_scheduler/internal/infra/database"
	"asset_lifecycle_scheduler/internal/infra/lock"
	"asset_lifecycle_scheduler/internal/infra/logger"
	"asset_lifecycle_scheduler/internal/infra/mail"
	"asset_lifecycle_scheduler/internal/infra/metrics"
	"asset_lifecycle_scheduler/internal/infra/notify"
	"asset_lifecycle_scheduler/internal/infra/scheduler"
	"asset_lifecycle_scheduler/internal/infra/telegram"

	"github.com/redis/go-redis/v9"
)

// application holds the wired services and the resources they share.
type application struct {
	cfg       *config.AppConfig
	db        *sql.DB
	rdb       *redis.Client
	scheduler *scheduler.Scheduler
}

func newApplication(ctx context.Context, cfg *config.AppConfig) (*application, error) {
	log := logger.Component("main")
	metrics.Init()

	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	a := &application{cfg: cfg, db: db}

	var locker lock.Locker
	if cfg.RedisURL != "" {
		a.rdb, err = lock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		locker = lock.NewRedisLocker(a.rdb, logger.Component("lock"))
	} else {
		log.Warn("REDIS_URL not set: exclusive jobs are only guarded within this process")
		locker = lock.NewLocalLocker()
	}

	defaultLoc := cronexpr.ResolveLocation(log, cfg.DefaultTimezone, "")
	templates, err := notify.LoadTemplates(cfg.AppURL, defaultLoc)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("could not load templates: %w", err)
	}

	sender, err := mail.NewSMTPSender(mail.Config{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		From:        mail.Address{Name: cfg.SMTP.FromName, Address: cfg.SMTP.FromAddress},
		UseTLS:      cfg.SMTP.UseTLS,
		UseStartTLS: cfg.SMTP.UseStartTLS,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	mailChannel := notify.NewMailChannel(sender)
	channels := []notify.Channel{
		mailChannel,
		notify.NewDatabaseChannel(database.NewPostgresNotificationStore(db)),
	}
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, err
		}
		channels = append(channels, notify.NewTelegramChannel(telegram.NewTelebotAdapter(bot)))
	}

	alertRepo := database.NewPostgresAlertRepository(db)
	userRepo := database.NewPostgresUserRepository(db)

	recurrence := app.NewRecurrenceService(database.NewPostgresMaintenanceRepository(db), logger.Component("recurrence"))
	evaluator := app.NewAlertEvaluator(alert.DefaultRules(), database.NewPostgresAlertSourceReader(db), alertRepo, logger.Component("alerts"))
	warranties := app.NewWarrantyService(database.NewPostgresWarrantyRepository(db), logger.Component("warranties"))
	reports := app.NewReportRunner(
		database.NewPostgresReportRepository(db),
		database.NewPostgresReportExecutor(db),
		cronexpr.NewMatcher(logger.Component("cron")),
		templates,
		mailChannel,
		cfg.DefaultTimezone,
		logger.Component("reports"),
	)

	var dispatchers []*app.AlertDispatcher
	for _, dc := range app.DefaultDispatchers(cfg.AlertDispatchWindow) {
		dispatchers = append(dispatchers, app.NewAlertDispatcher(dc, alertRepo, userRepo, templates, channels, logger.Component("dispatch")))
	}
	dispatch := app.NewDispatchService(dispatchers, logger.Component("dispatch"))
	if missing := dispatch.Unmapped(); len(missing) > 0 {
		a.Close()
		return nil, fmt.Errorf("alert types without notification templates: %v", missing)
	}

	runs := map[string]func(ctx context.Context) error{
		JobReports: func(ctx context.Context) error {
			_, err := reports.RunScheduled(ctx, time.Now())
			return err
		},
		JobRecurrence: func(ctx context.Context) error {
			_, err := recurrence.RunRecurrence(ctx, time.Now())
			return err
		},
		JobWarranties: func(ctx context.Context) error {
			_, err := warranties.ExpireWarranties(ctx, time.Now())
			return err
		},
		JobAlertsGen: func(ctx context.Context) error {
			_, err := evaluator.EvaluateRules(ctx, time.Now())
			return err
		},
		JobAlertsSend: func(ctx context.Context) error {
			return dispatch.DispatchAll(ctx, time.Now())
		},
	}

	registry := scheduler.NewRegistry()
	for _, d := range jobDefs(cfg) {
		err := registry.Register(scheduler.Job{
			Name:      d.name,
			Spec:      d.spec,
			Exclusive: d.exclusive,
			Timeout:   d.timeout,
			Run:       runs[d.name],
		})
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.scheduler = scheduler.NewScheduler(registry, locker, cfg.LockTTL, defaultLoc, logger.Component("scheduler"))
	return a, nil
}

func (a *application) Close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
