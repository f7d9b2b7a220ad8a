// Package config defines the service configuration and loads it from file and environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Config struct {
	App        AppConfig        `koanf:"app"`
	HTTPServer HTTPConfig       `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Log        LogConfig        `koanf:"log"`
	PProf      PProfConfig      `koanf:"pprof"`
	GRPC       GrpcServerConfig `koanf:"grpc"`
	Shutdown   ShutdownConfig   `koanf:"shutdown"`
	CORS       CORSConfig       `koanf:"cors"`
	RateLimit  RateLimitConfig  `koanf:"rateLimit"`
	Validation ValidationConfig `koanf:"validation"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Events     EventsConfig     `koanf:"events"`
	Health     HealthConfig     `koanf:"health"`
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  app.env: %s\n", c.App.Env))
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.maxHeaderBytes: %d\n", c.HTTPServer.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  server.timeout.idle: %v\n", c.HTTPServer.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  server.timeout.readHeader: %v\n", c.HTTPServer.Timeout.ReadHeader))
	b.WriteString(fmt.Sprintf("  cors.allowedOrigins: %s\n", strings.Join(c.CORS.AllowedOrigins, ",")))
	b.WriteString(fmt.Sprintf("  rateLimit: enabled=%t rps=%v burst=%d\n", c.RateLimit.Enabled, c.RateLimit.RPS, c.RateLimit.Burst))

	b.WriteString("\n--- Database Configuration ---\n")
	b.WriteString(fmt.Sprintf("  database.url: %s\n", maskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  database.timeout: %s\n", c.Database.Timeout))

	b.WriteString("\n--- gRPC Configuration ---\n")
	b.WriteString(fmt.Sprintf("  grpc.port: %s\n", c.GRPC.Port))
	b.WriteString(fmt.Sprintf("  grpc.reflection: %t\n", c.GRPC.ReflectionEnabled))
	b.WriteString(fmt.Sprintf("  health.interval: %s\n", c.Health.Interval))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  metrics.enabled: %t\n", c.Metrics.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  validation.priceBound: %s\n", c.Validation.PriceBound))
	b.WriteString(fmt.Sprintf("  events.enabled: %t\n", c.Events.Enabled))
	b.WriteString(fmt.Sprintf("  events.url: %s\n", maskURL(c.Events.URL)))
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

// maskURL hides the credentials of a connection URL.
func maskURL(raw string) string {
	if raw == "" {
		return "<not configured>"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if strings.HasPrefix(raw, sqliteScheme) {
			return raw
		}
		return "****"
	}
	if u.User != nil {
		u.User = url.User("****")
	}
	return u.Redacted()
}

type validator interface {
	Validate() error
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	sections := []validator{
		&c.App,
		&c.HTTPServer,
		&c.Database,
		&c.Log,
		&c.PProf,
		&c.GRPC,
		&c.Shutdown,
		&c.CORS,
		&c.RateLimit,
		&c.Validation,
		&c.Events,
		&c.Health,
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
