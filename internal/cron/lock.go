package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const defaultLockTTL = 55 * time.Minute

// Lock hands out at most one Lease at a time across every cron replica.
type Lock interface {
	Acquire(ctx context.Context) (Lease, bool, error)
}

// Lease is a held lock. Release is safe to call after the TTL has expired.
type Lease interface {
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock stores a random token under key with a TTL. The TTL bounds how
// long a crashed holder can block the next cycle.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{lock: l, token: token}, true, nil
}

type redisLease struct {
	lock  *RedisLock
	token string
}

// Release deletes the key only while it still carries this lease's token;
// after expiry another replica may own it.
func (r *redisLease) Release(ctx context.Context) error {
	if r.token == "" {
		return nil
	}
	current, err := r.lock.store.Get(ctx, r.lock.key)
	switch {
	case errors.Is(err, goredis.Nil):
		r.token = ""
		return nil
	case err != nil:
		return fmt.Errorf("read lock token: %w", err)
	case current != r.token:
		r.token = ""
		return nil
	}
	if err := r.lock.store.Del(ctx, r.lock.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	r.token = ""
	return nil
}
