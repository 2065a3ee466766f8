package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VINCENT-bot354/safaribytes/api/routes"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics/query"
	"github.com/VINCENT-bot354/safaribytes/internal/audit"
	"github.com/VINCENT-bot354/safaribytes/internal/delivery"
	"github.com/VINCENT-bot354/safaribytes/internal/ledger"
	"github.com/VINCENT-bot354/safaribytes/internal/notifications"
	"github.com/VINCENT-bot354/safaribytes/internal/orders"
	"github.com/VINCENT-bot354/safaribytes/internal/products"
	"github.com/VINCENT-bot354/safaribytes/internal/staff"
	"github.com/VINCENT-bot354/safaribytes/pkg/bigquery"
	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/db"
	"github.com/VINCENT-bot354/safaribytes/pkg/instance"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/maps"
	"github.com/VINCENT-bot354/safaribytes/pkg/metrics"
	"github.com/VINCENT-bot354/safaribytes/pkg/migrate"
	"github.com/VINCENT-bot354/safaribytes/pkg/ordercode"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/idempotency"
	"github.com/VINCENT-bot354/safaribytes/pkg/payhero"
	"github.com/VINCENT-bot354/safaribytes/pkg/redis"
	"github.com/VINCENT-bot354/safaribytes/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to load timezone", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	callbackGuard, err := idempotency.NewManager(redisClient, cfg.Eventing.CallbackIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create callback guard", err)
		os.Exit(1)
	}

	phoneHasher, err := security.NewFingerprinter(cfg.JWT.Secret)
	if err != nil {
		logg.Error(context.Background(), "failed to create phone fingerprinter", err)
		os.Exit(1)
	}

	staffService, err := staff.NewService(staff.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create staff service", err)
		os.Exit(1)
	}

	feedRepo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := notifications.NewService(feedRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	auditWriter := audit.NewWriter()
	productsService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, auditWriter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, auditWriter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:        orders.NewRepository(dbClient.DB()),
		Tx:          dbClient,
		Outbox:      outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Charger:     payhero.NewClient(cfg.PayHero),
		Codes:       ordercode.NewGenerator(loc),
		Feed:        feedRepo,
		Broadcaster: notifications.NewBroadcaster(redisClient, cfg.Eventing.BroadcastChannel, logg),
		Tracker:     staffService,
		Audit:       auditWriter,
		Guard:       callbackGuard,
		Catalog:     productsService,
		Metrics:     metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	calculator := delivery.NewCalculator(cfg.Delivery)
	var places *maps.Client
	if cfg.GoogleMaps.APIKey != "" {
		store := calculator.Store()
		places, err = maps.NewClient(cfg.GoogleMaps.APIKey,
			maps.WithLocationBias(maps.LatLng{Latitude: store.Latitude, Longitude: store.Longitude}),
			maps.WithRateLimit(cfg.GoogleMaps.RequestsPerSecond, cfg.GoogleMaps.Burst),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create maps client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "google maps key missing, place quotes disabled")
	}
	deliveryService := delivery.NewService(calculator, placesOrNil(places))

	deps := routes.Dependencies{
		DB:            dbClient,
		Redis:         redisClient,
		HTTPMetrics:   metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Metrics:       promhttp.Handler(),
		PhoneHasher:   phoneHasher,
		Orders:        ordersService,
		Notifications: notificationsService,
		Staff:         staffService,
		Delivery:      deliveryService,
		Products:      productsService,
		Ledger:        ledgerService,
	}

	if cfg.GCP.ProjectID != "" {
		bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		orderQueries, err := query.NewOrdersService(bqClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.OrderEventsTable, cfg.App.Timezone)
		if err != nil {
			logg.Error(context.Background(), "failed to create analytics queries", err)
			os.Exit(1)
		}
		analyticsService, err := analytics.NewService(analytics.Options{
			Orders: orderQueries,
			Cache:  redisClient,
			TTL:    cfg.BigQuery.SummaryCacheTTL,
			Logger: logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create analytics service", err)
			os.Exit(1)
		}
		deps.BigQuery = bqClient
		deps.Analytics = analyticsService
	} else {
		logg.Warn(context.Background(), "gcp project missing, analytics summary disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

// placesOrNil keeps a nil *maps.Client from becoming a non-nil interface.
func placesOrNil(client *maps.Client) delivery.PlacesClient {
	if client == nil {
		return nil
	}
	return client
}
