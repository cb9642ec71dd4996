package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "GAMEDEPOT"

const (
	EnvAppEnv       = "GAMEDEPOT_APP_ENV"
	EnvPort         = "GAMEDEPOT_APP_PORT"
	EnvLogLevel     = "GAMEDEPOT_LOG_LEVEL"
	EnvLogFormat    = "GAMEDEPOT_LOG_FORMAT"
	EnvLogWarnStack = "GAMEDEPOT_LOG_WARN_STACK"

	EnvDBDSN  = "GAMEDEPOT_DB_DSN"
	EnvDBHost = "GAMEDEPOT_DB_HOST"
	EnvDBPort = "GAMEDEPOT_DB_PORT"
	EnvDBUser = "GAMEDEPOT_DB_USER"
	EnvDBName = "GAMEDEPOT_DB_NAME"

	EnvDBSlowQuery     = "GAMEDEPOT_DB_SLOW_QUERY"
	EnvDBTxMaxAttempts = "GAMEDEPOT_DB_TX_MAX_ATTEMPTS"

	EnvMigrationsDir = "GAMEDEPOT_MIGRATIONS_DIR"

	EnvRedisURL = "GAMEDEPOT_REDIS_URL"

	EnvCORSAllowedOrigins = "GAMEDEPOT_CORS_ALLOWED_ORIGINS"

	EnvJWTSecret = "GAMEDEPOT_JWT_SECRET"
	EnvJWTIssuer = "GAMEDEPOT_JWT_ISSUER"

	EnvAutoMigrate        = "GAMEDEPOT_AUTO_MIGRATE"
	EnvRequireIdempotency = "GAMEDEPOT_REQUIRE_IDEMPOTENCY_KEY"

	EnvReportsPageSize = "GAMEDEPOT_REPORTS_PAGE_SIZE"

	EnvGCPProjectID          = "GAMEDEPOT_GCP_PROJECT_ID"
	EnvPubSubSettlementTopic = "GAMEDEPOT_PUBSUB_SETTLEMENT_TOPIC"

	EnvOutboxBatchSize   = "GAMEDEPOT_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvOutboxPollMS      = "GAMEDEPOT_OUTBOX_PUBLISH_POLL_MS"
	EnvOutboxMaxAttempts = "GAMEDEPOT_OUTBOX_MAX_ATTEMPTS"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
