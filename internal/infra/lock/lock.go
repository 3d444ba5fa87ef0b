// Package lock provides mutual exclusion for jobs that must not overlap.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLeaseHeld is returned when another holder owns the lock.
var ErrLeaseHeld = errors.New("lease is held by another worker")

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out named leases.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error)
}

// LocalLocker serialises holders inside one process only.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, _ time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[name]; ok {
		return nil, ErrLeaseHeld
	}
	l.held[name] = struct{}{}
	return &localLease{owner: l, name: name}, nil
}

type localLease struct {
	owner *LocalLocker
	name  string
	once  sync.Once
}

func (l *localLease) Release(context.Context) error {
	l.once.Do(func() {
		l.owner.mu.Lock()
		delete(l.owner.held, l.name)
		l.owner.mu.Unlock()
	})
	return nil
}
