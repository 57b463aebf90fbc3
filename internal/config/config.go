package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Events   EventsConfig
	Pricing  PricingConfig
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

type AuthConfig struct {
	JWTSecret string // HMAC secret used to verify bearer tokens
}

type DatabaseConfig struct {
	URL string
}

type EventsConfig struct {
	AMQPURL string // optional; event publishing is disabled when empty
}

// PricingConfig governs the admission engine.
//
// BulkDiscountThreshold defaults to 500 to match the historical behavior,
// even though catalog prices are stored in the smallest currency unit and
// typically run into the tens of thousands. The scale mismatch is suspected
// to be a latent bug in the product rules, so the threshold is exposed here
// rather than silently corrected.
type PricingConfig struct {
	BulkDiscountThreshold int64
	BulkDiscountPercent   int64
	LeadTimeHours         int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Events: EventsConfig{
			AMQPURL: getEnv("AMQP_URL", ""),
		},
		Pricing: PricingConfig{
			BulkDiscountThreshold: getEnvAsInt64("BULK_DISCOUNT_THRESHOLD", 500),
			BulkDiscountPercent:   getEnvAsInt64("BULK_DISCOUNT_PERCENT", 10),
			LeadTimeHours:         getEnvAsInt("LEAD_TIME_HOURS", 24),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Pricing.BulkDiscountThreshold < 0 {
		return fmt.Errorf("BULK_DISCOUNT_THRESHOLD must not be negative")
	}

	if c.Pricing.BulkDiscountPercent < 0 || c.Pricing.BulkDiscountPercent > 100 {
		return fmt.Errorf("BULK_DISCOUNT_PERCENT must be between 0 and 100")
	}

	if c.Pricing.LeadTimeHours < 0 {
		return fmt.Errorf("LEAD_TIME_HOURS must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
