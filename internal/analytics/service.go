package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/query"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/redis"
)

// Service answers the admin sales summary.
type Service interface {
	Summary(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error)
}

// Cache holds rendered summaries so dashboard refreshes do not rerun the
// BigQuery jobs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Options struct {
	Orders query.OrdersService
	Cache  Cache
	TTL    time.Duration
	Logger *logger.Logger
}

type service struct {
	orders query.OrdersService
	cache  Cache
	ttl    time.Duration
	logg   *logger.Logger
}

// NewService wraps the BigQuery queries with an optional cache. A nil Cache
// or a zero TTL disables caching.
func NewService(opts Options) (Service, error) {
	if opts.Orders == nil {
		return nil, errors.New("orders query service required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &service{orders: opts.Orders, cache: opts.Cache, ttl: opts.TTL, logg: opts.Logger}, nil
}

func (s *service) Summary(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error) {
	if s.cache == nil || s.ttl <= 0 {
		return s.orders.Summary(ctx, req)
	}

	key := summaryKey(req)
	logCtx := s.logg.WithField(ctx, "cache_key", key)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var resp types.SummaryResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
		s.logg.Warn(logCtx, "analytics.cache.corrupt")
	} else if !errors.Is(err, goredis.Nil) {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "analytics.cache.unavailable")
	}

	resp, err := s.orders.Summary(ctx, req)
	if err != nil {
		return nil, err
	}
	if body, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "analytics.cache.store_failed")
		}
	}
	return resp, nil
}

// summaryKey truncates to the minute so preset windows ending "now" share an
// entry within the TTL.
func summaryKey(req types.SummaryRequest) string {
	return redis.DefaultKeyspace.Key("analytics", "summary",
		fmt.Sprintf("%d-%d", req.Start.Truncate(time.Minute).Unix(), req.End.Truncate(time.Minute).Unix()))
}
