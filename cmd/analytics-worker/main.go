package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/router"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics/worker"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics/writer"
	"github.com/VINCENT-bot354/safaribytes/pkg/bigquery"
	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/idempotency"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/registry"
	"github.com/VINCENT-bot354/safaribytes/pkg/pubsub"
	"github.com/VINCENT-bot354/safaribytes/pkg/redis"
)

const serviceName = "analytics-worker"

func main() {
	if err := godotenv.Load(); err != nil {
		logger.New(logger.Options{ServiceName: serviceName}).
			Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: serviceName}).
			Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": serviceName})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "analytics worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "analytics worker shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg, pubsub.Subscription(cfg.PubSub.AnalyticsSubscription))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, pubsubClient.Close()) }()

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		return errors.New("analytics subscription not configured")
	}

	schema, err := types.OrderEventSchema()
	if err != nil {
		return err
	}
	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg, bigquery.CreateIfMissing(schema, "occurred_at"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, bqClient.Close()) }()

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return err
	}
	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return err
	}
	analyticsWriter, err := writer.New(bqClient, writer.Options{Table: cfg.BigQuery.OrderEventsTable})
	if err != nil {
		return err
	}
	handler, err := router.NewRouter(analyticsWriter, logg)
	if err != nil {
		return err
	}

	service, err := worker.NewService(subscription, events, handler, manager, logg)
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting analytics worker")
	return service.Run(ctx)
}
