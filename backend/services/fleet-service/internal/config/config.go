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
		Port string `yaml:"port" env:"FLEET_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN           string `yaml:"dsn" env:"FLEET_POSTGRES_DSN"`
		MigrationsDir string `yaml:"migrationsDir" env:"FLEET_MIGRATIONS_DIR"`
	} `yaml:"database"`
	JWT struct {
		Secret           string `yaml:"secret" env:"FLEET_JWT_SECRET"`
		ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"FLEET_JWT_EXPIRES_MINUTES"`
	} `yaml:"jwt"`
	Telemetry struct {
		BaseURL        string `yaml:"baseUrl" env:"TELEMETRY_SERVICE_URL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"TELEMETRY_CLIENT_TIMEOUT_SECONDS"`
	} `yaml:"telemetry"`
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "4000"
	cfg.JWT.ExpiresInMinutes = 60
	cfg.Telemetry.BaseURL = "http://localhost:6000"
	cfg.Telemetry.TimeoutSeconds = 5

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Database.DSN == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	if cfg.JWT.ExpiresInMinutes <= 0 {
		cfg.JWT.ExpiresInMinutes = 60
	}
	if cfg.Telemetry.TimeoutSeconds <= 0 {
		cfg.Telemetry.TimeoutSeconds = 5
	}

	return cfg, nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "4000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiration converts configured expiry to duration.
func (c *Config) JWTExpiration() time.Duration {
	if c.JWT.ExpiresInMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.JWT.ExpiresInMinutes) * time.Minute
}

// TelemetryTimeout converts the client timeout to duration.
func (c *Config) TelemetryTimeout() time.Duration {
	return time.Duration(c.Telemetry.TimeoutSeconds) * time.Second
}
