package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/openfab/gatekeeper/pkg/jwtx"
)

// MinSigningKeyBytes is the floor for the HS256 key. Anything shorter makes
// token forgery a brute-force exercise, so startup refuses it outright.
const MinSigningKeyBytes = 32

type Config struct {
	SigningKey string // Required: HS256 signing key, at least MinSigningKeyBytes bytes
	Issuer     string // Optional: issuer claim for tokens (default: gatekeeper)

	BootstrapToken string // Optional: if set, required to perform first-admin bootstrap

	TokenTTL   time.Duration // Optional: access token lifetime (default: 7 days)
	SessionTTL time.Duration // Optional: session row lifetime (default: token TTL)

	DatabaseFile string // Optional: path to SQLite database file (default: ./gatekeeper.db)
	PepperFile   string // Optional: path to password pepper file (default: ./pepper)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		SigningKey:           os.Getenv("GATEKEEPER_SIGNING_KEY"),
		Issuer:               getEnvOrDefault("GATEKEEPER_ISSUER", "gatekeeper"),
		BootstrapToken:       os.Getenv("BOOTSTRAP_TOKEN"),
		TokenTTL:             getEnvDurationOrDefault("GATEKEEPER_TOKEN_TTL", jwtx.DefaultTokenTTL),
		SessionTTL:           getEnvDurationOrDefault("GATEKEEPER_SESSION_TTL", 0),
		DatabaseFile:         getEnvOrDefault("GATEKEEPER_DATABASE_FILE", "gatekeeper.db"),
		PepperFile:           getEnvOrDefault("GATEKEEPER_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate rejects configurations the service must not start with. A missing
// or weak signing key is a hard error, never a warning.
func (cfg Config) Validate() error {
	if cfg.SigningKey == "" {
		return errors.New("GATEKEEPER_SIGNING_KEY is required")
	}
	if len(cfg.SigningKey) < MinSigningKeyBytes {
		return fmt.Errorf("GATEKEEPER_SIGNING_KEY must be at least %d bytes, got %d",
			MinSigningKeyBytes, len(cfg.SigningKey))
	}
	if cfg.TokenTTL <= 0 {
		return errors.New("GATEKEEPER_TOKEN_TTL must be positive")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", cfg.Port)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	return defaultValue
}
