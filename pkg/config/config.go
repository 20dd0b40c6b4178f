package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robtot/skeleton-go/pkg/model"
)

// Config holds the server settings.
type Config struct {
	Port            int
	LogLevel        model.LogLevel
	Compress        bool
	BodyLimit       int64
	ShutdownTimeout time.Duration
}

// fileConfig mirrors Config for the optional JSON file; nil fields keep the
// current value.
type fileConfig struct {
	Port            *int    `json:"port"`
	LogLevel        *string `json:"logLevel"`
	Compress        *bool   `json:"compress"`
	BodyLimit       *int64  `json:"bodyLimit"`
	ShutdownTimeout *string `json:"shutdownTimeout"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Port:            3000,
		LogLevel:        model.LogLevelDebug,
		Compress:        false,
		BodyLimit:       100 << 10,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load builds the configuration from defaults, then the JSON file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config not found: %s", path)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.LogLevel != nil {
		level, ok := model.ParseLogLevel(*fc.LogLevel)
		if !ok {
			return fmt.Errorf("invalid logLevel %q", *fc.LogLevel)
		}
		c.LogLevel = level
	}
	if fc.Compress != nil {
		c.Compress = *fc.Compress
	}
	if fc.BodyLimit != nil {
		c.BodyLimit = *fc.BodyLimit
	}
	if fc.ShutdownTimeout != nil {
		d, err := time.ParseDuration(*fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdownTimeout: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		level, ok := model.ParseLogLevel(v)
		if !ok {
			return fmt.Errorf("invalid LOG_LEVEL %q", v)
		}
		c.LogLevel = level
	}
	if v, ok := lookup("ENABLE_COMPRESSION"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ENABLE_COMPRESSION: %w", err)
		}
		c.Compress = b
	}
	if v, ok := lookup("BODY_LIMIT"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid BODY_LIMIT: %w", err)
		}
		c.BodyLimit = n
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.BodyLimit <= 0 {
		return fmt.Errorf("body limit must be positive: %d", c.BodyLimit)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive: %s", c.ShutdownTimeout)
	}
	return nil
}
