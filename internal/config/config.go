package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	// SessionStoreDefault keeps sessions in the main storage driver.
	SessionStoreDefault = "store"
	SessionStoreRedis   = "redis"
)

// Config holds the application configuration read from the environment.
type Config struct {
	ServerPort    int    `envconfig:"SERVER_PORT" default:"8000"`
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"memory"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`

	SessionSecret          string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTimeout         time.Duration `envconfig:"SESSION_TIMEOUT" default:"30m"`
	SessionMaxAge          time.Duration `envconfig:"SESSION_MAX_AGE" default:"24h"`
	SessionSlideOnActivity bool          `envconfig:"SESSION_SLIDE_ON_ACTIVITY" default:"true"`
	SessionSweepInterval   time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
	SessionStore           string        `envconfig:"SESSION_STORE" default:"store"`
	CookieSecure           bool          `envconfig:"COOKIE_SECURE" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	// S3 is optional; without a bucket the photo upload endpoint answers 503.
	AWSBucketName string `envconfig:"AWS_BUCKET_NAME"`
	AWSRegion     string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSEndpoint   string `envconfig:"AWS_ENDPOINT"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from environment variables and validates it.
func Load(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate rejects inconsistent combinations.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.SessionStore {
	case SessionStoreDefault, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.SessionMaxAge < c.SessionTimeout {
		return fmt.Errorf("SESSION_MAX_AGE must not be shorter than SESSION_TIMEOUT")
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// S3Enabled reports whether object storage is configured.
func (c *Config) S3Enabled() bool {
	return c.AWSBucketName != ""
}
