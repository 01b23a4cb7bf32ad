package config

import (
	"fmt"
	"time"

	"github.com/AlexMobiCraft/freesport-storefront/pkg/config"
)

// Config holds the storefront's runtime configuration, loaded from the
// environment.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Redis   RedisConfig
	API     APIConfig
	Kafka   KafkaConfig
	Session SessionConfig
	Tracing TracingConfig

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// RedisConfig configures the Redis connection shared by the session and
// cart stores.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// APIConfig configures the marketplace REST API client.
type APIConfig struct {
	BaseURL    string        `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	Timeout    time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	MaxRetries int           `env:"API_MAX_RETRIES" envDefault:"3"`
}

// KafkaConfig configures the analytics event producer. With Enabled false
// the storefront runs without a broker and skips publishing.
type KafkaConfig struct {
	Enabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

// SessionConfig configures the session cookie and the stores' lifetimes.
type SessionConfig struct {
	CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"fs_session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	RefreshTTL   time.Duration `env:"SESSION_REFRESH_TTL" envDefault:"720h"`
	CartTTL      time.Duration `env:"CART_TTL" envDefault:"168h"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.Port)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("API_MAX_RETRIES must not be negative")
	}
	if c.Session.RefreshTTL <= 0 {
		return fmt.Errorf("SESSION_REFRESH_TTL must be positive")
	}
	if c.Session.CartTTL <= 0 {
		return fmt.Errorf("CART_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0 and 1")
	}
	return nil
}

// IsProduction reports whether the storefront runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
