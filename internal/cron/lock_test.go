package cron

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	values map[string]string
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{values: map[string]string{}}
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Get(_ context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryLockStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

const testLockKey = "sb:cron:lock:test"

func TestRedisLockIsExclusiveUntilReleased(t *testing.T) {
	store := newMemoryLockStore()
	ctx := context.Background()
	lock, err := NewRedisLock(store, testLockKey, time.Hour)
	require.NoError(t, err)

	lease, ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lease.Release(ctx))
	assert.NotContains(t, store.values, testLockKey)

	_, ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLeaseLeavesAnotherHoldersKey(t *testing.T) {
	store := newMemoryLockStore()
	ctx := context.Background()
	lock, err := NewRedisLock(store, testLockKey, time.Hour)
	require.NoError(t, err)

	lease, ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// the TTL lapsed and another replica took over
	store.values[testLockKey] = "other-replica"
	require.NoError(t, lease.Release(ctx))
	assert.Equal(t, "other-replica", store.values[testLockKey])

	delete(store.values, testLockKey)
	assert.NoError(t, lease.Release(ctx))
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, testLockKey, time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(newMemoryLockStore(), "  ", time.Minute)
	assert.Error(t, err)

	lock, err := NewRedisLock(newMemoryLockStore(), testLockKey, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}
