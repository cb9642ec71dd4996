package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	CORS         CORSConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Reports      ReportsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Reports.PageSize <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvReportsPageSize)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GAMEDEPOT_APP_ENV" required:"true"`
	Port         string `envconfig:"GAMEDEPOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GAMEDEPOT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"GAMEDEPOT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"GAMEDEPOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"GAMEDEPOT_DB_DSN"`

	LegacyHost     string `envconfig:"GAMEDEPOT_DB_HOST"`
	LegacyPort     int    `envconfig:"GAMEDEPOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GAMEDEPOT_DB_USER"`
	LegacyPassword string `envconfig:"GAMEDEPOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"GAMEDEPOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"GAMEDEPOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GAMEDEPOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GAMEDEPOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GAMEDEPOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GAMEDEPOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQuery     time.Duration `envconfig:"GAMEDEPOT_DB_SLOW_QUERY" default:"250ms"`
	TxMaxAttempts int           `envconfig:"GAMEDEPOT_DB_TX_MAX_ATTEMPTS" default:"3"`

	// MigrationsDir overrides the migrations embedded in the binary.
	MigrationsDir string `envconfig:"GAMEDEPOT_MIGRATIONS_DIR"`
}

// RedisConfig is optional: an empty URL and address disables idempotency replay.
type RedisConfig struct {
	URL          string        `envconfig:"GAMEDEPOT_REDIS_URL"`
	Address      string        `envconfig:"GAMEDEPOT_REDIS_ADDR"`
	Password     string        `envconfig:"GAMEDEPOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"GAMEDEPOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GAMEDEPOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GAMEDEPOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GAMEDEPOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GAMEDEPOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GAMEDEPOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// CORSConfig lists the operator front-ends allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GAMEDEPOT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// JWTConfig only carries what is needed to verify operator tokens; issuance lives elsewhere.
type JWTConfig struct {
	Secret string `envconfig:"GAMEDEPOT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"GAMEDEPOT_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate         bool `envconfig:"GAMEDEPOT_AUTO_MIGRATE" default:"false"`
	RequireIdempotency  bool `envconfig:"GAMEDEPOT_REQUIRE_IDEMPOTENCY_KEY" default:"false"`
	StrictStatusUpdates bool `envconfig:"GAMEDEPOT_STRICT_STATUS_UPDATES" default:"false"`
}

type ReportsConfig struct {
	PageSize int `envconfig:"GAMEDEPOT_REPORTS_PAGE_SIZE" default:"10"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"GAMEDEPOT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	SettlementTopic string `envconfig:"GAMEDEPOT_PUBSUB_SETTLEMENT_TOPIC" default:"gamedepot-settlement-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GAMEDEPOT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GAMEDEPOT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GAMEDEPOT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	missing := []string{}
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
