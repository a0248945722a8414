package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of the BOM service
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	BOM       BOMConfig       `yaml:"bom"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	GinMode     string   `yaml:"gin_mode"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DBConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

type BOMConfig struct {
	DefaultMaxDepth   int `yaml:"default_max_depth"`
	MaxDepthLimit     int `yaml:"max_depth_limit"`
	ReachabilityLimit int `yaml:"reachability_limit"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080", GinMode: "release"},
		DB:   DBConfig{Driver: "sqlite", DSN: "file:bom.db"},
		Log:  LogConfig{Mode: "dev"},
		BOM: BOMConfig{
			DefaultMaxDepth:   10,
			MaxDepthLimit:     20,
			ReachabilityLimit: 100000,
		},
		Telemetry: TelemetryConfig{ServiceName: "bomcost"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then BOM_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", name, err)
		}
		*dst = n
		return nil
	}

	str("BOM_HTTP_ADDR", &cfg.HTTP.Addr)
	str("BOM_GIN_MODE", &cfg.HTTP.GinMode)
	str("BOM_DB_DRIVER", &cfg.DB.Driver)
	str("BOM_DB_DSN", &cfg.DB.DSN)
	str("BOM_LOG_MODE", &cfg.Log.Mode)
	str("OTEL_SERVICE_NAME", &cfg.Telemetry.ServiceName)
	if origins := strings.TrimSpace(getenv("BOM_CORS_ORIGINS")); origins != "" {
		cfg.HTTP.CORSOrigins = strings.Split(origins, ",")
	}

	for name, dst := range map[string]*int{
		"BOM_MAX_DEPTH":          &cfg.BOM.DefaultMaxDepth,
		"BOM_MAX_DEPTH_LIMIT":    &cfg.BOM.MaxDepthLimit,
		"BOM_REACHABILITY_LIMIT": &cfg.BOM.ReachabilityLimit,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}

	switch strings.ToLower(strings.TrimSpace(getenv("OTEL_ENABLED"))) {
	case "1", "true", "yes", "on":
		cfg.Telemetry.Enabled = true
	case "0", "false", "no", "off":
		cfg.Telemetry.Enabled = false
	}
	return nil
}

// Validate rejects settings the service cannot run with
func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db dsn is required")
	}
	if c.BOM.MaxDepthLimit < 1 {
		return fmt.Errorf("max_depth_limit must be at least 1, got %d", c.BOM.MaxDepthLimit)
	}
	if c.BOM.DefaultMaxDepth < 1 || c.BOM.DefaultMaxDepth > c.BOM.MaxDepthLimit {
		return fmt.Errorf("default_max_depth must be within 1..%d, got %d", c.BOM.MaxDepthLimit, c.BOM.DefaultMaxDepth)
	}
	if c.BOM.ReachabilityLimit < 1 {
		return fmt.Errorf("reachability_limit must be positive, got %d", c.BOM.ReachabilityLimit)
	}
	return nil
}
