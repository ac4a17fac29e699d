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
	JWT          JWTConfig
	Payments     PaymentsConfig
	Reports      ReportsConfig
	Orders       OrdersConfig
	Outbox       OutboxConfig
	PubSub       PubSubConfig
	GCP          GCPConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"MENSAHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"MENSAHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MENSAHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MENSAHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MENSAHUB_DB_DSN"`
	Driver string `envconfig:"MENSAHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MENSAHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"MENSAHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MENSAHUB_DB_USER"`
	LegacyPassword string `envconfig:"MENSAHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"MENSAHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"MENSAHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MENSAHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MENSAHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MENSAHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MENSAHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MENSAHUB_REDIS_URL"`
	Address      string        `envconfig:"MENSAHUB_REDIS_ADDR"`
	Password     string        `envconfig:"MENSAHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"MENSAHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MENSAHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MENSAHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MENSAHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MENSAHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MENSAHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint is configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"MENSAHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MENSAHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MENSAHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PaymentsConfig struct {
	// WebhookSecret keys the HMAC signature the payment collaborator sends
	// in the X-MensaHub-Signature header.
	WebhookSecret string `envconfig:"MENSAHUB_PAYMENT_WEBHOOK_SECRET"`
}

type ReportsConfig struct {
	// CacheTTL, when positive, turns on the Redis report cache. Reports are
	// recomputed per request otherwise.
	CacheTTL time.Duration `envconfig:"MENSAHUB_REPORT_CACHE_TTL" default:"0"`
}

type OrdersConfig struct {
	// TransitionAttempts bounds the optimistic-concurrency retry loop.
	TransitionAttempts int `envconfig:"MENSAHUB_ORDER_TRANSITION_ATTEMPTS" default:"3"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MENSAHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MENSAHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MENSAHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"MENSAHUB_PUBSUB_ORDERS_TOPIC" default:"mh-order-events"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"MENSAHUB_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"MENSAHUB_GCP_CREDENTIALS_JSON"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MENSAHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MENSAHUB_AUTO_MIGRATE" default:"false"`
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
