package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Slot backends accepted by SLOT_BACKEND.
const (
	SlotMemory   = "memory"
	SlotSQLite   = "sqlite"
	SlotRedis    = "redis"
	SlotPostgres = "postgres"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"CitizenPortal"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SlotBackend string `env:"SLOT_BACKEND" envDefault:"sqlite"`
	SlotKey     string `env:"SLOT_KEY" envDefault:"user"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"citizen_portal.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	SimulatedLatency  time.Duration `env:"SIMULATED_LATENCY" envDefault:"1s"`
	OTPTTL            time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"1m"`
	OTPEnforceExpiry  bool          `env:"OTP_ENFORCE_EXPIRY" envDefault:"false"`

	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.SlotBackend = strings.ToLower(strings.TrimSpace(cfg.SlotBackend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that depend on each other.
func (c Config) Validate() error {
	if c.SlotKey == "" {
		return fmt.Errorf("SLOT_KEY must not be empty")
	}
	switch c.SlotBackend {
	case SlotMemory:
	case SlotSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set when SLOT_BACKEND=%s", SlotSQLite)
		}
	case SlotRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when SLOT_BACKEND=%s", SlotRedis)
		}
	case SlotPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when SLOT_BACKEND=%s", SlotPostgres)
		}
	default:
		return fmt.Errorf("unknown SLOT_BACKEND %q", c.SlotBackend)
	}
	if c.SimulatedLatency < 0 || c.OTPTTL < 0 || c.OTPResendCooldown < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether APP_ENV names a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
