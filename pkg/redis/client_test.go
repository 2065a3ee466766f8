package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
)

type memoryCommands struct {
	values   map[string]string
	counters map[string]int64
	ttls     map[string]time.Duration
	sent     map[string][]any
}

func newMemory() *memoryCommands {
	return &memoryCommands{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
		sent:     map[string][]any{},
	}
}

func (m *memoryCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryCommands) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := m.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (m *memoryCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.values[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *memoryCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.ttls[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *memoryCommands) Publish(_ context.Context, channel string, msg any) *redis.IntCmd {
	m.sent[channel] = append(m.sent[channel], msg)
	return redis.NewIntResult(1, nil)
}

func TestFixedWindowAllowCountsWithinWindow(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	c := &Client{cmd: mem}

	for i := 1; i <= 2; i++ {
		ok, count, err := c.FixedWindowAllow(ctx, "orders:ip:10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(i), count)
	}
	ok, count, err := c.FixedWindowAllow(ctx, "orders:ip:10.0.0.1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, time.Minute, mem.ttls["sb:rate_limit:orders:ip:10.0.0.1"])
}

func TestSetNXWinsOnce(t *testing.T) {
	ctx := context.Background()
	c := &Client{cmd: newMemory()}
	key := c.IdempotencyKey("payhero-callback", "2025OC12dbfw")

	first, err := c.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	second, err := c.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	require.NoError(t, c.Del(ctx, key))
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestPublishRequiresChannel(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	c := &Client{cmd: mem}

	channel := c.ChannelKey("orders:live")
	require.NoError(t, c.Publish(ctx, channel, []byte(`{"type":"order_created"}`)))
	assert.Len(t, mem.sent["sb:channel:orders:live"], 1)
	assert.Error(t, c.Publish(ctx, " ", []byte("x")))
}

func TestKeyspace(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "sb:idempotency:scope:id", c.IdempotencyKey("scope", "id"))
	assert.Equal(t, "sb:idempotency:scope", c.IdempotencyKey("scope", " "))
	assert.Equal(t, "sb:rate_limit:orders", c.RateLimitKey("orders"))
	assert.Equal(t, "staging:channel:orders", Keyspace("staging").Key("channel", "orders"))
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
	_, err := c.SetNX(context.Background(), "k", "v", 0)
	assert.ErrorIs(t, err, errNotInitialized)
	assert.NoError(t, c.Close())
}

func TestDialOptions(t *testing.T) {
	_, err := dialOptions(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := dialOptions(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 20, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = dialOptions(config.RedisConfig{Address: "cache:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}
