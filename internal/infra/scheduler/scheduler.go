package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"asset_lifecycle_scheduler/internal/infra/lock"
	"asset_lifecycle_scheduler/internal/infra/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a named periodic unit of work.
type Job struct {
	Name string
	Spec string
	// Exclusive jobs run on one worker at a time cluster-wide and never overlap in-process.
	Exclusive bool
	Timeout   time.Duration
	Run       func(ctx context.Context) error
}

// ErrUnknownJob is returned by RunOnce for names not in the registry.
var ErrUnknownJob = errors.New("unknown job")

// Registry holds jobs by name.
type Registry struct {
	jobs map[string]Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]Job)}
}

// Register adds job, rejecting duplicates and unparsable specs.
func (r *Registry) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job needs a name and a run func")
	}
	if _, dup := r.jobs[job.Name]; dup {
		return fmt.Errorf("job %s registered twice", job.Name)
	}
	if _, err := cron.ParseStandard(job.Spec); err != nil {
		return fmt.Errorf("job %s: invalid spec %q: %w", job.Name, job.Spec, err)
	}
	if job.Timeout <= 0 {
		job.Timeout = 5 * time.Minute
	}
	r.jobs[job.Name] = job
	return nil
}

func (r *Registry) Get(name string) (Job, bool) {
	job, ok := r.jobs[name]
	return job, ok
}

// All returns the jobs sorted by name.
func (r *Registry) All() []Job {
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Scheduler triggers registered jobs on their cron specs.
type Scheduler struct {
	cronEngine *cron.Cron
	registry   *Registry
	locker     lock.Locker
	lockTTL    time.Duration
	logger     *logrus.Entry
	now        func() time.Time
}

func NewScheduler(registry *Registry, locker lock.Locker, lockTTL time.Duration, loc *time.Location, logger *logrus.Entry) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cronEngine: cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{logger})),
		registry:   registry,
		locker:     locker,
		lockTTL:    lockTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Start adds every job to the cron engine and starts it.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting job scheduler...")
	for _, job := range s.registry.All() {
		var wrappers []cron.JobWrapper
		wrappers = append(wrappers, cron.Recover(cronLogger{s.logger}))
		if job.Exclusive {
			wrappers = append(wrappers, cron.SkipIfStillRunning(cronLogger{s.logger}))
		}
		runner := cron.NewChain(wrappers...).Then(cron.FuncJob(func() {
			_ = s.execute(context.Background(), job)
		}))
		if _, err := s.cronEngine.AddJob(job.Spec, runner); err != nil {
			return fmt.Errorf("could not add job %s: %w", job.Name, err)
		}
		s.logger.WithFields(logrus.Fields{"job": job.Name, "spec": job.Spec, "exclusive": job.Exclusive}).Info("Job scheduled")
	}
	s.cronEngine.Start()
	s.logger.Info("Job scheduler started.")
	return nil
}

// Stop stops triggering new runs and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping job scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Job scheduler gracefully stopped.")
}

// RunOnce executes the named job now, honouring the same locking as scheduled runs.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	job, ok := s.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, job)
}

func (s *Scheduler) execute(parent context.Context, job Job) error {
	log := s.logger.WithField("job", job.Name)
	ctx, cancel := context.WithTimeout(parent, job.Timeout)
	defer cancel()

	if job.Exclusive {
		lease, err := s.locker.Acquire(ctx, job.Name, s.lockTTL)
		if errors.Is(err, lock.ErrLeaseHeld) {
			metrics.ObserveJob(job.Name, metrics.ResultSkipped, 0)
			log.Info("Job already running on another worker, skipping")
			return err
		}
		if err != nil {
			metrics.ObserveJob(job.Name, metrics.ResultError, 0)
			log.WithError(err).Error("Could not acquire job lease")
			return err
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := lease.Release(releaseCtx); err != nil {
				log.WithError(err).Warn("Could not release job lease")
			}
		}()
	}

	start := s.now()
	log.Debug("Job started")
	err := job.Run(ctx)
	elapsed := s.now().Sub(start)
	if err != nil {
		metrics.ObserveJob(job.Name, metrics.ResultError, elapsed)
		log.WithError(err).WithField("duration", elapsed.String()).Error("Job failed")
		return err
	}
	metrics.ObserveJob(job.Name, metrics.ResultSuccess, elapsed)
	log.WithField("duration", elapsed.String()).Debug("Job finished")
	return nil
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(toFields(keysAndValues)).Error(msg)
}

func toFields(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
