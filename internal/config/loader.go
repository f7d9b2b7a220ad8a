package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by the service, e.g. PRODUCTS_SERVER_PORT.
const EnvPrefix = "PRODUCTS_"

// Sources names the files Load reads. Missing files are skipped.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

var DefaultSources = Sources{ConfigFile: "config.yaml", EnvFile: ".env"}

// legacyKeys maps the bare variables of earlier deployments onto config keys.
var legacyKeys = map[string]string{
	"DATABASE_URL": "database.url",
	"PORT":         "server.port",
	"NODE_ENV":     "app.env",
}

// camelSegments restores the case of key segments that environment variables lose.
var camelSegments = map[string]string{
	"maxheaderbytes": "maxHeaderBytes",
	"readheader":     "readHeader",
	"allowedorigins": "allowedOrigins",
	"ratelimit":      "rateLimit",
	"pricebound":     "priceBound",
}

func defaults() map[string]any {
	return map[string]any{
		"app.env":                   "development",
		"server.port":               3000,
		"server.maxHeaderBytes":     1 << 20,
		"server.timeout.read":       "10s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readHeader": "5s",
		"database.timeout":          "5s",
		"log.level":                 "info",
		"pprof.enabled":             false,
		"pprof.addr":                "localhost:6060",
		"grpc.port":                 "50051",
		"grpc.reflection":           false,
		"shutdown.timeout":          "10s",
		"cors.allowedOrigins":       []string{"*"},
		"rateLimit.enabled":         false,
		"rateLimit.rps":             10,
		"rateLimit.burst":           20,
		"validation.priceBound":     "nonnegative",
		"metrics.enabled":           true,
		"events.enabled":            false,
		"events.timeout":            "5s",
		"health.interval":           "15s",
	}
}

// envKey turns PRODUCTS_RATELIMIT_RPS into rateLimit.rps.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	segments := strings.Split(key, "_")
	for i, s := range segments {
		if camel, ok := camelSegments[s]; ok {
			segments[i] = camel
		}
	}
	return strings.Join(segments, ".")
}

// Load reads the configuration from DefaultSources and the environment.
func Load() (*Config, error) {
	return LoadFrom(DefaultSources)
}

// LoadFrom merges, lowest priority first: built-in defaults, the YAML file, the .env file,
// the legacy bare variables and finally PRODUCTS_ prefixed environment variables.
func LoadFrom(src Sources) (*Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// 2. Load configuration from yaml file
	if src.ConfigFile != "" {
		if err := k.Load(file.Provider(src.ConfigFile), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				log.Printf("WARN: error loading YAML config file '%s': %v", src.ConfigFile, err)
			}
		}
	}

	// 3. Load variables from .env file; prefixed and legacy names are both honored
	if src.EnvFile != "" {
		if envFileMap, err := godotenv.Read(src.EnvFile); err == nil {
			envMap := make(map[string]any)
			for name, value := range envFileMap {
				if key, ok := legacyKeys[name]; ok {
					envMap[key] = value
				}
			}
			for name, value := range envFileMap {
				if strings.HasPrefix(name, EnvPrefix) {
					envMap[envKey(name)] = value
				}
			}
			if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
				log.Printf("WARN: error loading .env config: %v", err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: error reading .env file: %v", err)
		}
	}

	// 4. Legacy bare variables from the system
	legacy := make(map[string]any)
	for name, key := range legacyKeys {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			legacy[key] = value
		}
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		log.Printf("WARN: error loading legacy env vars: %v", err)
	}

	// 5. Load environment variables from the system, the highest priority
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
