package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/rl1809/hoodie-drop/internal/adapter/intake"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	lockMargin = 5 * time.Second
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"hoodie-drop"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr    string `env:"GRPC_ADDR" envDefault:":50051"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	DraftStore    string        `env:"DRAFT_STORE" envDefault:"memory"`
	DraftTTL      time.Duration `env:"DRAFT_TTL" envDefault:"30m"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`

	// LockTTL overrides the derived checkout lock lifetime. Zero derives it
	// from the intake timeout and confirmation delay.
	LockTTL time.Duration `env:"LOCK_TTL"`

	IntakeURL     string           `env:"INTAKE_URL" envDefault:"https://docs.google.com/forms/d/e/1FAIpQLSddnVTbtmhTJDgkXdLMlTOjPrE-EL-9hmtzCBB-jBuN0YLF-g/formResponse"`
	IntakeTimeout time.Duration    `env:"INTAKE_TIMEOUT" envDefault:"10s"`
	IntakeFields  intake.FieldKeys `envPrefix:"INTAKE_FIELD_"`

	// ConfirmationDelay paces the confirmation screen only.
	ConfirmationDelay time.Duration `env:"CONFIRMATION_DELAY" envDefault:"0s"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DraftStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: DRAFT_STORE must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreRedis, c.DraftStore)
	}
	if c.IntakeURL == "" {
		return fmt.Errorf("%w: INTAKE_URL is required", ErrInvalidConfig)
	}
	if c.ConfirmationDelay < 0 {
		return fmt.Errorf("%w: CONFIRMATION_DELAY must not be negative", ErrInvalidConfig)
	}
	if c.IntakeTimeout <= 0 {
		return fmt.Errorf("%w: INTAKE_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if floor := c.minLockTTL(); c.LockTTL != 0 && c.LockTTL < floor {
		return fmt.Errorf("%w: LOCK_TTL %s is shorter than INTAKE_TIMEOUT + CONFIRMATION_DELAY + %s (%s)",
			ErrInvalidConfig, c.LockTTL, lockMargin, floor)
	}
	return nil
}

// SubmitLockTTL is how long a checkout lock lives. It always outlasts one
// intake send followed by the confirmation delay.
func (c Config) SubmitLockTTL() time.Duration {
	if c.LockTTL != 0 {
		return c.LockTTL
	}
	return c.minLockTTL()
}

func (c Config) minLockTTL() time.Duration {
	return c.IntakeTimeout + c.ConfirmationDelay + lockMargin
}
