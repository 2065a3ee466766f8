package analytics

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

type countingOrders struct {
	calls int
	err   error
}

func (o *countingOrders) Summary(_ context.Context, _ types.SummaryRequest) (*types.SummaryResponse, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	return &types.SummaryResponse{
		DeliveredOrders: 4,
		PaymentMethods:  []types.LabelValue{{Label: "cash", Value: 3}},
	}, nil
}

type mapCache struct {
	values map[string]string
	getErr error
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.values[key] = string(value.([]byte))
	return nil
}

func newTestService(t *testing.T, orders *countingOrders, cache Cache, ttl time.Duration) Service {
	t.Helper()
	svc, err := NewService(Options{
		Orders: orders,
		Cache:  cache,
		TTL:    ttl,
		Logger: logger.New(logger.Options{ServiceName: "analytics-test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func window() types.SummaryRequest {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	return types.SummaryRequest{Start: start, End: start.AddDate(0, 0, 7)}
}

func TestSummaryServesRepeatRequestsFromCache(t *testing.T) {
	orders := &countingOrders{}
	cache := &mapCache{values: map[string]string{}}
	svc := newTestService(t, orders, cache, time.Minute)

	first, err := svc.Summary(context.Background(), window())
	require.NoError(t, err)
	second, err := svc.Summary(context.Background(), window())
	require.NoError(t, err)

	assert.Equal(t, 1, orders.calls)
	assert.Equal(t, first, second)
	assert.Len(t, cache.values, 1)
}

func TestSummaryFallsThroughWhenCacheIsDown(t *testing.T) {
	orders := &countingOrders{}
	svc := newTestService(t, orders, &mapCache{values: map[string]string{}, getErr: errors.New("redis down")}, time.Minute)

	resp, err := svc.Summary(context.Background(), window())
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.DeliveredOrders)
	assert.Equal(t, 1, orders.calls)
}

func TestSummaryWithoutCacheAlwaysQueries(t *testing.T) {
	orders := &countingOrders{}
	svc := newTestService(t, orders, nil, time.Minute)

	_, _ = svc.Summary(context.Background(), window())
	_, _ = svc.Summary(context.Background(), window())
	assert.Equal(t, 2, orders.calls)
}

func TestSummaryDoesNotCacheErrors(t *testing.T) {
	orders := &countingOrders{err: errors.New("query failed")}
	cache := &mapCache{values: map[string]string{}}
	svc := newTestService(t, orders, cache, time.Minute)

	_, err := svc.Summary(context.Background(), window())
	assert.EqualError(t, err, "query failed")
	assert.Empty(t, cache.values)
}

func TestNewServiceRequiresOrders(t *testing.T) {
	_, err := NewService(Options{})
	assert.EqualError(t, err, "orders query service required")
}
