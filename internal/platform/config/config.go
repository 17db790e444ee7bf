package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL      string
	Port             string
	IsProduction     bool
	OperationTimeout time.Duration

	// Optional bearer auth for the whole API surface.
	AuthEnabled bool
	JWTSecret   string

	// Per-client-IP rate limit in ulule/limiter notation, e.g. "100-S".
	// Empty disables limiting.
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8022")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("OPERATION_TIMEOUT", "30s")
	viper.SetDefault("AUTH_ENABLED", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("RATE_LIMIT", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8022"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	// Posting operations run to completion inside this bound even when the
	// caller disconnects.
	timeoutStr := viper.GetString("OPERATION_TIMEOUT")
	operationTimeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		operationTimeout = 30 * time.Second
		if timeoutStr != "" {
			log.Printf("Warning: Invalid value for OPERATION_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, operationTimeout)
		}
	}
	cfg.OperationTimeout = operationTimeout

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.AuthEnabled = viper.GetBool("AUTH_ENABLED")
	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		log.Println("Warning: AUTH_ENABLED is set but JWT_SECRET is empty. All authenticated requests will fail.")
	}
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
