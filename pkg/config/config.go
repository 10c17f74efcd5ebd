package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is passed to envconfig; individual fields carry explicit
	// SALTBREEZE_* names so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SALTBREEZE_DB_DSN"
	EnvDBHost = "SALTBREEZE_DB_HOST"
	EnvDBUser = "SALTBREEZE_DB_USER"
	EnvDBName = "SALTBREEZE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Staff        StaffConfig
	Gateway      GatewayConfig
	Shipping     ShippingConfig
	Checkout     CheckoutConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"SALTBREEZE_APP_ENV" required:"true"`
	Port         string `envconfig:"SALTBREEZE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SALTBREEZE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALTBREEZE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SALTBREEZE_DB_DSN"`
	Driver string `envconfig:"SALTBREEZE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SALTBREEZE_DB_HOST"`
	LegacyPort     int    `envconfig:"SALTBREEZE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SALTBREEZE_DB_USER"`
	LegacyPassword string `envconfig:"SALTBREEZE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SALTBREEZE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SALTBREEZE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALTBREEZE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALTBREEZE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALTBREEZE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALTBREEZE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SALTBREEZE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SALTBREEZE_REDIS_ADDR"`
	Password     string        `envconfig:"SALTBREEZE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALTBREEZE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALTBREEZE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALTBREEZE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALTBREEZE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALTBREEZE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALTBREEZE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SALTBREEZE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SALTBREEZE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SALTBREEZE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// StaffConfig holds the single back-office credential pair. Staff accounts
// are provisioned through deployment config, not a user table.
type StaffConfig struct {
	Username     string `envconfig:"SALTBREEZE_STAFF_USERNAME" required:"true"`
	PasswordHash string `envconfig:"SALTBREEZE_STAFF_PASSWORD_HASH" required:"true"`
}

// GatewayConfig holds the payment-gateway client settings. The webhook secret
// signs server-to-server notifications; the API key authorizes redirect
// session creation.
type GatewayConfig struct {
	BaseURL        string        `envconfig:"SALTBREEZE_GATEWAY_BASE_URL" required:"true"`
	APIKey         string        `envconfig:"SALTBREEZE_GATEWAY_API_KEY" required:"true"`
	WebhookSecret  string        `envconfig:"SALTBREEZE_GATEWAY_WEBHOOK_SECRET" required:"true"`
	RequestTimeout time.Duration `envconfig:"SALTBREEZE_GATEWAY_REQUEST_TIMEOUT" default:"10s"`
	EventGuardTTL  time.Duration `envconfig:"SALTBREEZE_GATEWAY_EVENT_GUARD_TTL" default:"720h"`
}

// ShippingConfig drives the fee tiering applied at checkout.
type ShippingConfig struct {
	MainlandFeeYen   int `envconfig:"SALTBREEZE_SHIPPING_MAINLAND_FEE_YEN" default:"500"`
	IslandFeeYen     int `envconfig:"SALTBREEZE_SHIPPING_ISLAND_FEE_YEN" default:"1200"`
	FreeThresholdYen int `envconfig:"SALTBREEZE_SHIPPING_FREE_THRESHOLD_YEN" default:"15000"`
}

type CheckoutConfig struct {
	ConfirmationURL string `envconfig:"SALTBREEZE_CHECKOUT_CONFIRMATION_URL" required:"true"`
	StorefrontURL   string `envconfig:"SALTBREEZE_CHECKOUT_STOREFRONT_URL" default:"http://localhost:3000"`
}

type PubSubConfig struct {
	ProjectID         string `envconfig:"SALTBREEZE_GCP_PROJECT_ID"`
	NotificationTopic string `envconfig:"SALTBREEZE_PUBSUB_NOTIFICATION_TOPIC" default:"sb-notification-events"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SALTBREEZE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SALTBREEZE_AUTO_MIGRATE" default:"false"`
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
