package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "asset-scheduler:lease:"

var renewScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
	return 0
end`)

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
else
	return 0
end`)

// LeaseKey returns the Redis key guarding name.
func LeaseKey(name string) string {
	return keyPrefix + name
}

// RedisLocker holds cluster-wide leases with SET NX PX and owner-checked renew/release.
type RedisLocker struct {
	rdb    *redis.Client
	logger *logrus.Entry
}

func NewRedisLocker(rdb *redis.Client, logger *logrus.Entry) *RedisLocker {
	return &RedisLocker{rdb: rdb, logger: logger}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	owner := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, LeaseKey(name), owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}

	renewCtx, cancel := context.WithCancel(context.Background())
	lease := &redisLease{locker: l, name: name, owner: owner, cancel: cancel, done: make(chan struct{})}
	go lease.keepAlive(renewCtx, ttl)
	return lease, nil
}

type redisLease struct {
	locker *RedisLocker
	name   string
	owner  string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// keepAlive extends the lease at a third of its TTL until released.
func (l *redisLease) keepAlive(ctx context.Context, ttl time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := renewScript.Run(ctx, l.locker.rdb, []string{LeaseKey(l.name)}, l.owner, ttl.Milliseconds()).Int()
			if err != nil {
				if ctx.Err() == nil {
					l.locker.logger.WithError(err).WithField("lease", l.name).Warn("Failed to renew lease")
				}
				continue
			}
			if n == 0 {
				l.locker.logger.WithField("lease", l.name).Warn("Lease lost before release")
				return
			}
		}
	}
}

func (l *redisLease) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		l.cancel()
		<-l.done
		if _, runErr := releaseScript.Run(ctx, l.locker.rdb, []string{LeaseKey(l.name)}, l.owner).Result(); runErr != nil {
			err = fmt.Errorf("release lease %s: %w", l.name, runErr)
		}
	})
	return err
}
