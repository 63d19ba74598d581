package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Payments     PaymentsConfig
	Webhooks     WebhooksConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RESTOMOD_APP_ENV" required:"true"`
	Port         string `envconfig:"RESTOMOD_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RESTOMOD_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"RESTOMOD_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"RESTOMOD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RESTOMOD_DB_DSN" required:"true"`
	Driver string `envconfig:"RESTOMOD_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"RESTOMOD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RESTOMOD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RESTOMOD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RESTOMOD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RESTOMOD_REDIS_URL"`
	Address      string        `envconfig:"RESTOMOD_REDIS_ADDR"`
	Password     string        `envconfig:"RESTOMOD_REDIS_PASSWORD"`
	DB           int           `envconfig:"RESTOMOD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RESTOMOD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RESTOMOD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RESTOMOD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RESTOMOD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RESTOMOD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RESTOMOD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RESTOMOD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RESTOMOD_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PaymentsConfig selects and configures the payment provider client. Mode is
// resolved once at process start; business logic never branches on it.
type PaymentsConfig struct {
	Mode        string `envconfig:"RESTOMOD_PAYMENTS_MODE" default:"stripe"`
	APIKey      string `envconfig:"RESTOMOD_STRIPE_API_KEY"`
	Secret      string `envconfig:"RESTOMOD_STRIPE_WEBHOOK_SECRET"`
	Env         string `envconfig:"RESTOMOD_STRIPE_ENV" default:"test"`
	FrontendURL string `envconfig:"RESTOMOD_FRONTEND_URL" required:"true"`
}

const (
	PaymentsModeStripe    = "stripe"
	PaymentsModeSimulated = "simulated"
)

func (p PaymentsConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Mode)) {
	case PaymentsModeStripe, PaymentsModeSimulated:
		return nil
	default:
		return fmt.Errorf("payments mode must be %q or %q", PaymentsModeStripe, PaymentsModeSimulated)
	}
}

// IsSimulated reports whether the simulated provider is configured.
func (p PaymentsConfig) IsSimulated() bool {
	return strings.EqualFold(strings.TrimSpace(p.Mode), PaymentsModeSimulated)
}

// SuccessURL is the redirect target Stripe sends buyers to after payment.
func (p PaymentsConfig) SuccessURL() string {
	return strings.TrimRight(p.FrontendURL, "/") + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is the redirect target for abandoned checkouts.
func (p PaymentsConfig) CancelURL() string {
	return strings.TrimRight(p.FrontendURL, "/") + "/checkout/cancel"
}

type WebhooksConfig struct {
	IdempotencyTTL time.Duration `envconfig:"RESTOMOD_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RESTOMOD_AUTO_MIGRATE" default:"false"`
}
