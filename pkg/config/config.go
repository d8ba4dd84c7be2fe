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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"BATDONGSCAM_APP_ENV" required:"true"`
	Port         string `envconfig:"BATDONGSCAM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BATDONGSCAM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BATDONGSCAM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BATDONGSCAM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BATDONGSCAM_DB_DSN"`
	Driver string `envconfig:"BATDONGSCAM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BATDONGSCAM_DB_HOST"`
	LegacyPort     int    `envconfig:"BATDONGSCAM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BATDONGSCAM_DB_USER"`
	LegacyPassword string `envconfig:"BATDONGSCAM_DB_PASSWORD"`
	LegacyName     string `envconfig:"BATDONGSCAM_DB_NAME"`
	LegacySSLMode  string `envconfig:"BATDONGSCAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BATDONGSCAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BATDONGSCAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BATDONGSCAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BATDONGSCAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BATDONGSCAM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BATDONGSCAM_REDIS_ADDR"`
	Password     string        `envconfig:"BATDONGSCAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"BATDONGSCAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BATDONGSCAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BATDONGSCAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BATDONGSCAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BATDONGSCAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BATDONGSCAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BATDONGSCAM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BATDONGSCAM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BATDONGSCAM_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BATDONGSCAM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BATDONGSCAM_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BATDONGSCAM_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	IdempotencyKeyTTL    time.Duration `envconfig:"BATDONGSCAM_IDEMPOTENCY_KEY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BATDONGSCAM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BATDONGSCAM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BATDONGSCAM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ContractsTopic        string `envconfig:"BATDONGSCAM_PUBSUB_CONTRACTS_TOPIC" default:"bds-contract-events"`
	ContractsSubscription string `envconfig:"BATDONGSCAM_PUBSUB_CONTRACTS_SUBSCRIPTION"`
	PaymentsTopic         string `envconfig:"BATDONGSCAM_PUBSUB_PAYMENTS_TOPIC" default:"bds-payment-events"`
	PaymentsSubscription  string `envconfig:"BATDONGSCAM_PUBSUB_PAYMENTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BATDONGSCAM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BATDONGSCAM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BATDONGSCAM_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"BATDONGSCAM_CRON_INTERVAL" default:"1h"`
	LockTTL              time.Duration `envconfig:"BATDONGSCAM_CRON_LOCK_TTL" default:"50m"`
	OutboxRetentionDays  int           `envconfig:"BATDONGSCAM_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	PaymentOverdueWindow time.Duration `envconfig:"BATDONGSCAM_CRON_PAYMENT_OVERDUE_WINDOW" default:"24h"`
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
