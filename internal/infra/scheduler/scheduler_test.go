package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"asset_lifecycle_scheduler/internal/infra/lock"
	"asset_lifecycle_scheduler/internal/infra/logger"
)

func noop(context.Context) error { return nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Job{Name: "warranties:expire", Spec: "0 1 * * *", Run: noop}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(Job{Name: "alerts:generate", Spec: "@daily", Run: noop}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(Job{Name: "alerts:generate", Spec: "@daily", Run: noop}); err == nil {
		t.Error("duplicate Register() succeeded")
	}
	if err := r.Register(Job{Name: "broken", Spec: "every now and then", Run: noop}); err == nil {
		t.Error("Register() accepted an invalid spec")
	}

	all := r.All()
	if len(all) != 2 || all[0].Name != "alerts:generate" {
		t.Errorf("All() = %v", all)
	}
	job, ok := r.Get("warranties:expire")
	if !ok || job.Timeout != 5*time.Minute {
		t.Errorf("Get() = %+v, %v", job, ok)
	}
}

func TestRunOnce(t *testing.T) {
	r := NewRegistry()
	runs := 0
	_ = r.Register(Job{Name: "reports:run-scheduled", Spec: "* * * * *", Exclusive: true, Run: func(context.Context) error {
		runs++
		return nil
	}})
	boom := errors.New("boom")
	_ = r.Register(Job{Name: "alerts:dispatch", Spec: "*/15 * * * *", Run: func(context.Context) error { return boom }})

	s := NewScheduler(r, lock.NewLocalLocker(), time.Minute, time.UTC, logger.Discard())
	ctx := context.Background()

	if err := s.RunOnce(ctx, "reports:run-scheduled"); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	if err := s.RunOnce(ctx, "alerts:dispatch"); !errors.Is(err, boom) {
		t.Errorf("RunOnce() error = %v, want boom", err)
	}
	if err := s.RunOnce(ctx, "coffee:brew"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("RunOnce() error = %v, want ErrUnknownJob", err)
	}
}

func TestExclusiveJobSkipsWhileHeld(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	runs := 0
	_ = r.Register(Job{Name: "maintenance:generate-recurring", Spec: "0 * * * *", Exclusive: true, Run: func(context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		close(started)
		<-release
		return nil
	}})

	s := NewScheduler(r, lock.NewLocalLocker(), time.Minute, time.UTC, logger.Discard())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.RunOnce(ctx, "maintenance:generate-recurring") }()
	<-started

	if err := s.RunOnce(ctx, "maintenance:generate-recurring"); !errors.Is(err, lock.ErrLeaseHeld) {
		t.Errorf("overlapping RunOnce() error = %v, want ErrLeaseHeld", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first RunOnce() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestNonExclusiveJobsDoNotLock(t *testing.T) {
	r := NewRegistry()
	var locker countingLocker
	_ = r.Register(Job{Name: "warranties:expire", Spec: "0 1 * * *", Run: noop})

	s := NewScheduler(r, &locker, time.Minute, time.UTC, logger.Discard())
	if err := s.RunOnce(context.Background(), "warranties:expire"); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if locker.calls != 0 {
		t.Errorf("locker called %d times for a non-exclusive job", locker.calls)
	}
}

type countingLocker struct{ calls int }

func (c *countingLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (lock.Lease, error) {
	c.calls++
	return lock.NewLocalLocker().Acquire(ctx, name, ttl)
}
