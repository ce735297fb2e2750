package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Postgres     PostgresConfig
	SQLite       SQLiteConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Lifecycle    LifecycleConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name           string        `env:"APP_NAME" env-default:"incident-service"`
	Env            string        `env:"APP_ENV" env-default:"development"`
	Host           string        `env:"APP_HOST" env-default:"0.0.0.0"`
	Port           string        `env:"APP_PORT" env-default:"5000"`
	Version        string        `env:"APP_VERSION" env-default:"dev"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" env-default:"postgres"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string        `env:"POSTGRES_DSN"`
	MaxConns        int32         `env:"POSTGRES_MAX_CONNS" env-default:"10"`
	MinConns        int32         `env:"POSTGRES_MIN_CONNS" env-default:"2"`
	RunMigrations   bool          `env:"POSTGRES_RUN_MIGRATIONS" env-default:"true"`
	ConnMaxIdleTime time.Duration `env:"POSTGRES_CONN_MAX_IDLE" env-default:"30s"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFE" env-default:"5m"`
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" env-default:"data/incidents.sqlite"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret  string        `env:"AUTH_JWT_SECRET" env-default:"dev-secret"`
	TokenTTL   time.Duration `env:"AUTH_TOKEN_TTL" env-default:"24h"`
	BcryptCost int           `env:"AUTH_BCRYPT_COST" env-default:"10"`
}

// Notification drivers.
const (
	NotifyDriverLog   = "log"
	NotifyDriverFCM   = "fcm"
	NotifyDriverRedis = "redis"
)

// NotificationConfig selects and configures the push gateway.
type NotificationConfig struct {
	Driver       string        `env:"NOTIFY_DRIVER" env-default:"log"`
	FCMEndpoint  string        `env:"NOTIFY_FCM_ENDPOINT" env-default:"https://fcm.googleapis.com/fcm/send"`
	FCMServerKey string        `env:"NOTIFY_FCM_SERVER_KEY"`
	QueueKey     string        `env:"NOTIFY_QUEUE_KEY" env-default:"incidents:push"`
	SendTimeout  time.Duration `env:"NOTIFY_SEND_TIMEOUT" env-default:"5s"`
}

// LifecycleConfig toggles how strictly state transitions are enforced.
type LifecycleConfig struct {
	Strict bool `env:"LIFECYCLE_STRICT" env-default:"true"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the service cannot run with.
func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	c.Notification.Driver = strings.ToLower(strings.TrimSpace(c.Notification.Driver))
	switch c.Notification.Driver {
	case NotifyDriverLog, NotifyDriverRedis:
	case NotifyDriverFCM:
		if strings.TrimSpace(c.Notification.FCMServerKey) == "" {
			return fmt.Errorf("NOTIFY_FCM_SERVER_KEY required for NOTIFY_DRIVER=fcm")
		}
	default:
		return fmt.Errorf("unsupported NOTIFY_DRIVER %q", c.Notification.Driver)
	}

	if c.Auth.BcryptCost <= 0 {
		c.Auth.BcryptCost = 10
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}
