package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VINCENT-bot354/safaribytes/api/controllers"
	analyticscontrollers "github.com/VINCENT-bot354/safaribytes/api/controllers/analytics"
	ordercontrollers "github.com/VINCENT-bot354/safaribytes/api/controllers/orders"
	webhookcontrollers "github.com/VINCENT-bot354/safaribytes/api/controllers/webhooks"
	"github.com/VINCENT-bot354/safaribytes/api/middleware"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics"
	"github.com/VINCENT-bot354/safaribytes/internal/delivery"
	"github.com/VINCENT-bot354/safaribytes/internal/ledger"
	"github.com/VINCENT-bot354/safaribytes/internal/notifications"
	"github.com/VINCENT-bot354/safaribytes/internal/orders"
	"github.com/VINCENT-bot354/safaribytes/internal/products"
	"github.com/VINCENT-bot354/safaribytes/internal/staff"
	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/metrics"
	"github.com/VINCENT-bot354/safaribytes/pkg/redis"
	"github.com/VINCENT-bot354/safaribytes/pkg/security"
)

// Dependencies groups what the HTTP surface needs. A nil service makes its
// routes answer with an error instead of panicking.
type Dependencies struct {
	DB            controllers.Pinger
	Redis         *redis.Client
	BigQuery      controllers.Pinger
	HTTPMetrics   *metrics.HTTPMetrics
	Metrics       http.Handler
	PhoneHasher   *security.Fingerprinter
	Orders        orders.Service
	Notifications notifications.Service
	Staff         *staff.Service
	Delivery      delivery.Service
	Analytics     analytics.Service
	Products      products.Service
	Ledger        ledger.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	loc, err := cfg.App.Location()
	if err != nil {
		loc = time.UTC
	}

	var (
		idempotencyStore middleware.ReplayStore
		limiterStore     middleware.RateLimitStore
	)
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		limiterStore = deps.Redis
	}
	var hasher middleware.PhoneHasher
	if deps.PhoneHasher != nil {
		hasher = deps.PhoneHasher
	}
	var trackingUpdater controllers.TrackingLinkUpdater
	if deps.Staff != nil {
		trackingUpdater = deps.Staff
	}
	orderPolicy := middleware.NewOrderRateLimitPolicy(cfg.OrderRateLimit, hasher)

	pingers := map[string]controllers.Pinger{"db": deps.DB, "bigquery": deps.BigQuery}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	auth := middleware.Auth(cfg.JWT, logg)
	idempotency := middleware.Idempotency(idempotencyStore, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", controllers.Ping("public"))

		r.Route("/orders", func(r chi.Router) {
			r.With(
				middleware.OptionalAuth(cfg.JWT, logg),
				middleware.OrderRateLimit(orderPolicy, limiterStore, logg),
				idempotency,
			).Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/{orderId}/tracking", ordercontrollers.Tracking(deps.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(auth, middleware.RequireFulfillment(logg), idempotency)
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.Post("/{orderId}/claim", ordercontrollers.Claim(deps.Orders, logg))
				r.Post("/{orderId}/unclaim", ordercontrollers.Unclaim(deps.Orders, logg))
				r.Post("/{orderId}/payment", ordercontrollers.RequestPayment(deps.Orders, logg))
				r.Post("/{orderId}/mark-paid", ordercontrollers.MarkPaid(deps.Orders, logg))
				r.Post("/{orderId}/deliver", ordercontrollers.Deliver(deps.Orders, logg))
			})
		})

		r.Get("/products", controllers.ProductMenu(deps.Products, logg))

		r.Post("/callbacks/payment/stk", webhookcontrollers.PaymentCallback(deps.Orders, logg))

		r.Route("/delivery", func(r chi.Router) {
			r.Post("/quote", controllers.DeliveryQuote(deps.Delivery, logg))
			r.Get("/suggest", controllers.DeliverySuggest(deps.Delivery, logg))
		})

		r.Route("/customer", func(r chi.Router) {
			r.Use(auth, middleware.RequireRoles(logg, enums.ActorRoleCustomer))
			r.Get("/orders", ordercontrollers.CustomerOrders(deps.Orders, logg))
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(auth, middleware.RequireFulfillment(logg))
			r.Get("/ping", controllers.Ping("staff"))
			r.Post("/tracking-link", controllers.UpdateTrackingLink(trackingUpdater, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth, middleware.RequireRoles(logg, enums.ActorRoleAdmin))
			r.Get("/analytics/summary", analyticscontrollers.Summary(deps.Analytics, loc, logg))
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.Products, logg))
				r.Post("/", controllers.CreateProduct(deps.Products, logg))
				r.Get("/{productId}", controllers.AdminGetProduct(deps.Products, logg))
				r.Put("/{productId}", controllers.UpdateProduct(deps.Products, logg))
				r.Patch("/{productId}/availability", controllers.SetProductAvailability(deps.Products, logg))
				r.Delete("/{productId}", controllers.RemoveProduct(deps.Products, logg))
			})
			r.Route("/capital", func(r chi.Router) {
				r.Get("/", controllers.CapitalLedger(deps.Ledger, logg))
				r.Post("/", controllers.RecordCapital(deps.Ledger, logg))
				r.Put("/{entryId}", controllers.EditCapital(deps.Ledger, logg))
			})
		})
	})

	return r
}
