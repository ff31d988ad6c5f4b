package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "spacerover/backend/libs/config"
)

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"TELEMETRY_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN           string `yaml:"dsn" env:"TELEMETRY_POSTGRES_DSN"`
		MigrationsDir string `yaml:"migrationsDir" env:"TELEMETRY_MIGRATIONS_DIR"`
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr" env:"TELEMETRY_REDIS_ADDR"`
		Password   string `yaml:"password" env:"TELEMETRY_REDIS_PASSWORD"`
		DB         int    `yaml:"db" env:"TELEMETRY_REDIS_DB"`
		TTLSeconds int    `yaml:"ttlSeconds" env:"TELEMETRY_CACHE_TTL_SECONDS"`
	} `yaml:"redis"`
	Generator struct {
		Enabled         bool `yaml:"enabled" env:"TELEMETRY_GENERATOR_ENABLED"`
		IntervalSeconds int  `yaml:"intervalSeconds" env:"TELEMETRY_GENERATOR_INTERVAL_SECONDS"`
	} `yaml:"generator"`
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "6000"
	cfg.Redis.TTLSeconds = 120
	cfg.Generator.Enabled = true
	cfg.Generator.IntervalSeconds = 15

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Database.DSN == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if cfg.Redis.TTLSeconds <= 0 {
		cfg.Redis.TTLSeconds = 120
	}
	if cfg.Generator.IntervalSeconds <= 0 {
		cfg.Generator.IntervalSeconds = 15
	}

	return cfg, nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "6000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// CacheTTL converts the cache TTL to duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// GeneratorInterval converts the generation cadence to duration.
func (c *Config) GeneratorInterval() time.Duration {
	return time.Duration(c.Generator.IntervalSeconds) * time.Second
}
