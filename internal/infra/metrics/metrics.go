package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "asset_scheduler_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

var (
	registerOnce sync.Once

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	alertsCreated      *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	alertsMarkedSent   *prometheus.CounterVec

	reportRuns        *prometheus.CounterVec
	occurrencesTotal  prometheus.Counter
	warrantiesExpired prometheus.Counter
)

// Init registers the scheduler metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		jobRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "job_runs_total",
				Help: "Job runs by job and result",
			},
			[]string{"job", "result"},
		)
		jobDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "job_duration_seconds",
				Help:    "Job duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
			},
			[]string{"job"},
		)
		alertsCreated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_created_total",
				Help: "Alerts created by type",
			},
			[]string{"type"},
		)
		notificationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Notification sends by channel and result",
			},
			[]string{"channel", "result"},
		)
		alertsMarkedSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_sent_total",
				Help: "Alerts marked sent by dispatcher",
			},
			[]string{"dispatcher"},
		)
		reportRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_runs_total",
				Help: "Scheduled report runs by result",
			},
			[]string{"result"},
		)
		occurrencesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "maintenance_occurrences_created_total",
			Help: "Maintenance occurrences generated from recurring records",
		})
		warrantiesExpired = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "warranties_expired_total",
			Help: "Warranties flipped to expired",
		})

		prometheus.MustRegister(
			jobRuns,
			jobDuration,
			alertsCreated,
			notificationsTotal,
			alertsMarkedSent,
			reportRuns,
			occurrencesTotal,
			warrantiesExpired,
		)
	})
}

// ObserveJob records one job run.
func ObserveJob(job, result string, duration time.Duration) {
	if jobRuns != nil {
		jobRuns.WithLabelValues(job, result).Inc()
	}
	if jobDuration != nil && result != ResultSkipped {
		jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	}
}

func AddAlertsCreated(alertType string, n int) {
	if alertsCreated != nil && n > 0 {
		alertsCreated.WithLabelValues(alertType).Add(float64(n))
	}
}

func IncNotification(channel, result string) {
	if notificationsTotal != nil {
		notificationsTotal.WithLabelValues(channel, result).Inc()
	}
}

func IncAlertSent(dispatcher string) {
	if alertsMarkedSent != nil {
		alertsMarkedSent.WithLabelValues(dispatcher).Inc()
	}
}

func IncReportRun(result string) {
	if reportRuns != nil {
		reportRuns.WithLabelValues(result).Inc()
	}
}

func IncOccurrenceCreated() {
	if occurrencesTotal != nil {
		occurrencesTotal.Inc()
	}
}

func AddWarrantiesExpired(n int64) {
	if warrantiesExpired != nil && n > 0 {
		warrantiesExpired.Add(float64(n))
	}
}
