package config

const EnvPrefix = "SAFARIBYTES"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultTimezone     = "Africa/Nairobi"
	DefaultCallbackPath = "/api/v1/callbacks/payment/stk"
)

const (
	EnvAppEnv   = "SAFARIBYTES_APP_ENV"
	EnvPort     = "SAFARIBYTES_APP_PORT"
	EnvTimezone = "SAFARIBYTES_TIMEZONE"

	EnvDBDSN  = "SAFARIBYTES_DB_DSN"
	EnvDBHost = "SAFARIBYTES_DB_HOST"
	EnvDBUser = "SAFARIBYTES_DB_USER"
	EnvDBName = "SAFARIBYTES_DB_NAME"

	EnvRedisURL     = "SAFARIBYTES_REDIS_URL"
	EnvJWTSecret    = "SAFARIBYTES_JWT_SECRET"
	EnvJWTIssuer    = "SAFARIBYTES_JWT_ISSUER"
	EnvGCPProjectID = "SAFARIBYTES_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic = "SAFARIBYTES_PUBSUB_ORDERS_TOPIC"

	EnvPayHeroAuthToken = "SAFARIBYTES_PAYHERO_AUTH_TOKEN"
	EnvPayHeroChannelID = "SAFARIBYTES_PAYHERO_CHANNEL_ID"
	EnvWebsiteURL       = "SAFARIBYTES_WEBSITE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
