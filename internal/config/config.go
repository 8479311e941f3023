// Package config provides configuration helpers for flight school commands.
// Values come from built-in defaults, then an optional YAML file, then
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultServerURL      = "http://localhost:8080"
	DefaultTelemetryEvery = 6 // ticks between telemetry frames (10 Hz)
	DefaultAllowOrigins   = "*"
)

// Config holds the server settings.
type Config struct {
	Port           string `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file"`
	TelemetryEvery int    `yaml:"telemetry_every"`
	StaticDir      string `yaml:"static_dir"`
	RequestLog     bool   `yaml:"request_log"`
	AllowOrigins   string `yaml:"allow_origins"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		LogLevel:       DefaultLogLevel,
		TelemetryEvery: DefaultTelemetryEvery,
		AllowOrigins:   DefaultAllowOrigins,
	}
}

// Load builds the settings. path may be empty to skip the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Port = String("PORT", c.Port)
	c.LogLevel = String("LOG_LEVEL", c.LogLevel)
	c.LogFile = String("LOG_FILE", c.LogFile)
	c.TelemetryEvery = Int("TELEMETRY_EVERY", c.TelemetryEvery)
	c.StaticDir = String("STATIC_DIR", c.StaticDir)
	c.RequestLog = Bool("REQUEST_LOG", c.RequestLog)
	c.AllowOrigins = String("ALLOW_ORIGINS", c.AllowOrigins)
}

// Validate checks values that would otherwise fail at runtime.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.TelemetryEvery < 1 {
		return fmt.Errorf("telemetry_every must be at least 1, got %d", c.TelemetryEvery)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// ServerURL returns the server base URL from FLIGHTSCHOOL_URL env var.
// Falls back to DefaultServerURL if not set.
func ServerURL() string {
	return strings.TrimRight(String("FLIGHTSCHOOL_URL", DefaultServerURL), "/")
}

// String returns the env var key or def when unset.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var key parsed as an int, or def when unset or invalid.
func Int(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Bool returns the env var key parsed as a bool, or def when unset or invalid.
func Bool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
