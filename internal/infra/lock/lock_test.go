package lock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"asset_lifecycle_scheduler/internal/infra/logger"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	lease, err := l.Acquire(ctx, "reports", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := l.Acquire(ctx, "reports", time.Minute); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("second Acquire() error = %v, want ErrLeaseHeld", err)
	}
	if _, err := l.Acquire(ctx, "recurrence", time.Minute); err != nil {
		t.Fatalf("Acquire() of a different name error = %v", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := lease.Release(ctx); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
	again, err := l.Acquire(ctx, "reports", time.Minute)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = again.Release(ctx)
}

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer rdb.Close()

	name := "test-" + t.Name()
	rdb.Del(ctx, LeaseKey(name))

	a := NewRedisLocker(rdb, logger.Discard())
	b := NewRedisLocker(rdb, logger.Discard())

	lease, err := a.Acquire(ctx, name, 3*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := b.Acquire(ctx, name, 3*time.Second); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("competing Acquire() error = %v, want ErrLeaseHeld", err)
	}

	// Survives past its TTL while held.
	time.Sleep(4 * time.Second)
	if _, err := b.Acquire(ctx, name, 3*time.Second); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("Acquire() after TTL error = %v, want ErrLeaseHeld", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	other, err := b.Acquire(ctx, name, 3*time.Second)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = other.Release(ctx)
}
