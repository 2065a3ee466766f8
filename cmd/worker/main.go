package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/VINCENT-bot354/safaribytes/internal/notifications"
	"github.com/VINCENT-bot354/safaribytes/internal/orders"
	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/db"
	"github.com/VINCENT-bot354/safaribytes/pkg/instance"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/mailer"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/idempotency"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/registry"
	"github.com/VINCENT-bot354/safaribytes/pkg/pubsub"
	"github.com/VINCENT-bot354/safaribytes/pkg/redis"
)

const serviceName = "worker"

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
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceName,
		"instance":    instance.GetID(),
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg, pubsub.Subscription(cfg.PubSub.EmailSubscription))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, pubsubClient.Close()) }()

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return err
	}
	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return err
	}

	sendgrid := mailer.NewSendGrid(cfg.Sendgrid)
	if !sendgrid.Configured() {
		logg.Warn(ctx, "sendgrid not configured, order emails will be skipped")
	}

	emailConsumer, err := notifications.NewEmailConsumer(
		orders.NewRepository(dbClient.DB()),
		sendgrid,
		events,
		pubsubClient.EmailSubscription(),
		manager,
		logg,
	)
	if err != nil {
		return err
	}

	service, err := NewService(ServiceParams{
		Logger: logg,
		Dependencies: []Dependency{
			{Name: "database", Client: dbClient},
			{Name: "redis", Client: redisClient},
			{Name: "pubsub", Client: pubsubClient},
		},
		Consumers: []Consumer{{Name: "email", Runner: emailConsumer}},
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting worker")
	return service.Run(ctx)
}
