package config

import (
	"fmt"
	"strings"
	"time"
)

type AppConfig struct {
	Env string `koanf:"env"`
}

// IsProduction reports whether diagnostic details must be hidden from clients.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *AppConfig) Validate() error {
	if c.Env == "" {
		return fmt.Errorf("app environment is not configured")
	}
	return nil
}

type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	sqliteScheme = "sqlite://"
)

type DatabaseConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// Driver selects the SQL executor from the URL scheme.
func (c *DatabaseConfig) Driver() string {
	switch {
	case strings.HasPrefix(c.URL, "postgres://"), strings.HasPrefix(c.URL, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(c.URL, sqliteScheme):
		return DriverSQLite
	default:
		return ""
	}
}

// SQLiteDSN returns the file path (or ":memory:") of a sqlite:// URL.
func (c *DatabaseConfig) SQLiteDSN() string {
	return strings.TrimPrefix(c.URL, sqliteScheme)
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if c.Driver() == "" {
		return fmt.Errorf("database URL must start with 'postgres://', 'postgresql://' or 'sqlite://': %s", maskURL(c.URL))
	}
	if c.Driver() == DriverSQLite && c.SQLiteDSN() == "" {
		return fmt.Errorf("sqlite database path is empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	return nil
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
}

type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("pprof is enabled but address is not configured")
	}
	return nil
}

type GrpcServerConfig struct {
	Port              string `koanf:"port"`
	ReflectionEnabled bool   `koanf:"reflection"`
}

func (c *GrpcServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("gRPC port is not configured")
	}
	return nil
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowedOrigins"`
}

func (c *CORSConfig) Validate() error {
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("cors allowed origins are not configured")
	}
	return nil
}

type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RPS <= 0 {
		return fmt.Errorf("invalid rate limit rps: %v", c.RPS)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("invalid rate limit burst: %d", c.Burst)
	}
	return nil
}

type ValidationConfig struct {
	PriceBound string `koanf:"priceBound"`
}

func (c *ValidationConfig) Validate() error {
	switch strings.ToLower(c.PriceBound) {
	case "", "nonnegative", "positive":
		return nil
	default:
		return fmt.Errorf("invalid validation.priceBound %q: must be 'nonnegative' or 'positive'", c.PriceBound)
	}
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type EventsConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *EventsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("events are enabled but NATS URL is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("nats dial timeout is not configured")
	}
	return nil
}

type HealthConfig struct {
	Interval time.Duration `koanf:"interval"`
}

func (c *HealthConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("health check interval is not configured")
	}
	return nil
}
