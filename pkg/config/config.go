package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	Service        ServiceConfig
	DB             DBConfig
	Redis          RedisConfig
	JWT            JWTConfig
	OrderRateLimit OrderRateLimitConfig
	FeatureFlags   FeatureFlagsConfig
	Eventing       EventingConfig
	GoogleMaps     GoogleMapsConfig
	GCP            GCPConfig
	PubSub         PubSubConfig
	BigQuery       BigQueryConfig
	Sendgrid       SendgridConfig
	Outbox         OutboxConfig
	PayHero        PayHeroConfig
	Delivery       DeliveryConfig
	Cron           CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SAFARIBYTES_APP_ENV" required:"true"`
	Port         string   `envconfig:"SAFARIBYTES_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"SAFARIBYTES_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SAFARIBYTES_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"SAFARIBYTES_TIMEZONE" default:"Africa/Nairobi"`
	CORSOrigins  []string `envconfig:"SAFARIBYTES_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the business timezone used for order codes and timestamps.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

type ServiceConfig struct {
	Kind string `envconfig:"SAFARIBYTES_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN       string        `envconfig:"SAFARIBYTES_DB_DSN"`
	SlowQuery time.Duration `envconfig:"SAFARIBYTES_DB_SLOW_QUERY" default:"500ms"`

	LegacyHost     string `envconfig:"SAFARIBYTES_DB_HOST"`
	LegacyPort     int    `envconfig:"SAFARIBYTES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SAFARIBYTES_DB_USER"`
	LegacyPassword string `envconfig:"SAFARIBYTES_DB_PASSWORD"`
	LegacyName     string `envconfig:"SAFARIBYTES_DB_NAME"`
	LegacySSLMode  string `envconfig:"SAFARIBYTES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SAFARIBYTES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SAFARIBYTES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SAFARIBYTES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SAFARIBYTES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SAFARIBYTES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SAFARIBYTES_REDIS_ADDR"`
	Password     string        `envconfig:"SAFARIBYTES_REDIS_PASSWORD"`
	DB           int           `envconfig:"SAFARIBYTES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SAFARIBYTES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SAFARIBYTES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SAFARIBYTES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SAFARIBYTES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SAFARIBYTES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig validates bearer tokens minted by the staff/admin identity service.
type JWTConfig struct {
	Secret            string `envconfig:"SAFARIBYTES_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SAFARIBYTES_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SAFARIBYTES_JWT_EXPIRATION_MINUTES" default:"60"`
}

type OrderRateLimitConfig struct {
	Window     time.Duration `envconfig:"SAFARIBYTES_ORDER_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit    int           `envconfig:"SAFARIBYTES_ORDER_RATE_LIMIT_IP_LIMIT" default:"20"`
	PhoneLimit int           `envconfig:"SAFARIBYTES_ORDER_RATE_LIMIT_PHONE_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SAFARIBYTES_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL   time.Duration `envconfig:"SAFARIBYTES_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	CallbackIdempotencyTTL time.Duration `envconfig:"SAFARIBYTES_EVENTING_CALLBACK_TTL" default:"72h"`
	BroadcastChannel       string        `envconfig:"SAFARIBYTES_EVENTING_BROADCAST_CHANNEL" default:"orders:live"`
}

type GoogleMapsConfig struct {
	APIKey            string  `envconfig:"SAFARIBYTES_GOOGLE_MAPS_API_KEY"`
	RequestsPerSecond float64 `envconfig:"SAFARIBYTES_GOOGLE_MAPS_RPS" default:"10"`
	Burst             int     `envconfig:"SAFARIBYTES_GOOGLE_MAPS_BURST" default:"20"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SAFARIBYTES_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SAFARIBYTES_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SAFARIBYTES_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"SAFARIBYTES_PUBSUB_ORDERS_TOPIC" default:"sb-order-events"`
	EmailSubscription     string `envconfig:"SAFARIBYTES_PUBSUB_EMAIL_SUBSCRIPTION" default:"sb-order-events-email"`
	AnalyticsSubscription string `envconfig:"SAFARIBYTES_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"sb-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset          string        `envconfig:"SAFARIBYTES_BIGQUERY_DATASET" default:"safaribytes"`
	OrderEventsTable string        `envconfig:"SAFARIBYTES_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
	SummaryCacheTTL  time.Duration `envconfig:"SAFARIBYTES_ANALYTICS_SUMMARY_CACHE_TTL" default:"5m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SAFARIBYTES_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SAFARIBYTES_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SAFARIBYTES_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SAFARIBYTES_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SAFARIBYTES_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"SAFARIBYTES_SENDGRID_FROM_NAME" default:"SafariBytes"`
}

// PayHeroConfig carries the STK push gateway credentials.
type PayHeroConfig struct {
	Endpoint     string        `envconfig:"SAFARIBYTES_PAYHERO_ENDPOINT" default:"https://backend.payhero.co.ke/api/v2/payments"`
	AuthToken    string        `envconfig:"SAFARIBYTES_PAYHERO_AUTH_TOKEN"`
	ChannelID    string        `envconfig:"SAFARIBYTES_PAYHERO_CHANNEL_ID"`
	Provider     string        `envconfig:"SAFARIBYTES_PAYHERO_PROVIDER" default:"m-pesa"`
	WebsiteURL   string        `envconfig:"SAFARIBYTES_WEBSITE_URL"`
	CallbackPath string        `envconfig:"SAFARIBYTES_PAYHERO_CALLBACK_PATH" default:"/api/v1/callbacks/payment/stk"`
	Timeout      time.Duration `envconfig:"SAFARIBYTES_PAYHERO_TIMEOUT" default:"30s"`

	RequestsPerSecond float64 `envconfig:"SAFARIBYTES_PAYHERO_REQUESTS_PER_SECOND" default:"5"`
	Burst             int     `envconfig:"SAFARIBYTES_PAYHERO_BURST" default:"10"`
}

// CallbackURL joins the public base URL and the webhook path.
func (p PayHeroConfig) CallbackURL() string {
	base := strings.TrimRight(strings.TrimSpace(p.WebsiteURL), "/")
	path := strings.TrimSpace(p.CallbackPath)
	if path == "" {
		path = DefaultCallbackPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// Configured reports whether charges can be issued.
func (p PayHeroConfig) Configured() bool {
	return strings.TrimSpace(p.AuthToken) != "" && strings.TrimSpace(p.ChannelID) != ""
}

// CronConfig sets the cadence and retention of housekeeping jobs. Zero
// retention values fall back to the job defaults.
type CronConfig struct {
	Interval                  time.Duration `envconfig:"SAFARIBYTES_CRON_INTERVAL" default:"1h"`
	NotificationRetentionDays int           `envconfig:"SAFARIBYTES_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"SAFARIBYTES_CRON_OUTBOX_RETENTION_DAYS" default:"7"`
}

type DeliveryConfig struct {
	MinimumFee     float64 `envconfig:"SAFARIBYTES_DELIVERY_MIN_FEE" default:"100"`
	RatePerKm      float64 `envconfig:"SAFARIBYTES_DELIVERY_RATE_PER_KM" default:"50"`
	StoreLatitude  float64 `envconfig:"SAFARIBYTES_STORE_LATITUDE" default:"-1.286389"`
	StoreLongitude float64 `envconfig:"SAFARIBYTES_STORE_LONGITUDE" default:"36.817223"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
