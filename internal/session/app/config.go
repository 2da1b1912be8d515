package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/covergate/sessiond/internal/session/service"
	"github.com/covergate/sessiond/pkg/tokenx"
)

type Config struct {
	Issuer      string // Issuer claim stamped into every token
	TokenSecret string // Required: base64 HMAC key, at least 32 bytes decoded

	DatabaseFile         string        // Path to the SQLite database file (default: ./session.db)
	AccessTTL            time.Duration // Access token lifetime (default: 30m)
	RefreshTTL           time.Duration // Refresh token lifetime (default: 336h)
	OneTimeCodeTTL       time.Duration // Emailed login code lifetime (default: 5m)
	LedgerPurgeGrace     time.Duration // Extra retention on used-token rows past the refresh TTL (default: 24h)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Ledger and code pruning interval (default: 1h)
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:               getEnvOrDefault("SESSION_ISSUER", "sessiond"),
		TokenSecret:          os.Getenv("SESSION_TOKEN_SECRET"),
		DatabaseFile:         getEnvOrDefault("SESSION_DATABASE_FILE", "session.db"),
		AccessTTL:            getEnvDurationOrDefault("SESSION_ACCESS_TTL", tokenx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("SESSION_REFRESH_TTL", tokenx.DefaultRefreshTokenTTL),
		OneTimeCodeTTL:       getEnvDurationOrDefault("SESSION_ONE_TIME_CODE_TTL", service.DefaultOneTimeCodeTTL),
		LedgerPurgeGrace:     getEnvDurationOrDefault("SESSION_LEDGER_PURGE_GRACE", 24*time.Hour),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}

	if cfg.TokenSecret == "" {
		return Config{}, errors.New("SESSION_TOKEN_SECRET must be set")
	}

	return cfg, nil
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

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
