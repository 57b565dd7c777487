package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "serviplace"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "SERVIPLACE_APP_ENV"
	EnvPort     = "SERVIPLACE_APP_PORT"
	EnvDBDSN    = "SERVIPLACE_DB_DSN"
	EnvDBHost   = "SERVIPLACE_DB_HOST"
	EnvDBUser   = "SERVIPLACE_DB_USER"
	EnvDBName   = "SERVIPLACE_DB_NAME"
	EnvRedisURL = "SERVIPLACE_REDIS_URL"

	EnvGCPProjectID      = "SERVIPLACE_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "SERVIPLACE_PUBSUB_ORDERS_TOPIC"
	EnvPaymentsBaseURL   = "SERVIPLACE_PAYMENTS_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Payments     PaymentsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SERVIPLACE_APP_ENV" required:"true"`
	Port         string `envconfig:"SERVIPLACE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SERVIPLACE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVIPLACE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SERVIPLACE_DB_DSN"`
	Driver string `envconfig:"SERVIPLACE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERVIPLACE_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVIPLACE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVIPLACE_DB_USER"`
	LegacyPassword string `envconfig:"SERVIPLACE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVIPLACE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVIPLACE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVIPLACE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVIPLACE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVIPLACE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVIPLACE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVIPLACE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERVIPLACE_REDIS_ADDR"`
	Password     string        `envconfig:"SERVIPLACE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVIPLACE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVIPLACE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVIPLACE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVIPLACE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVIPLACE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVIPLACE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate        bool `envconfig:"SERVIPLACE_AUTO_MIGRATE" default:"false"`
	IdempotencyEnabled bool `envconfig:"SERVIPLACE_IDEMPOTENCY_ENABLED" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SERVIPLACE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SERVIPLACE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SERVIPLACE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"SERVIPLACE_PUBSUB_ORDERS_TOPIC" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SERVIPLACE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SERVIPLACE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SERVIPLACE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PaymentsConfig struct {
	BaseURL string        `envconfig:"SERVIPLACE_PAYMENTS_BASE_URL"`
	APIKey  string        `envconfig:"SERVIPLACE_PAYMENTS_API_KEY"`
	Timeout time.Duration `envconfig:"SERVIPLACE_PAYMENTS_TIMEOUT" default:"10s"`
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
