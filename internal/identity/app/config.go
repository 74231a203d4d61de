package app

import (
	"os"
	"strconv"
	"time"

	"github.com/nexusai/careerid/pkg/jwtx"
)

type Config struct {
	Issuer string // Required: issuer claim for tokens (default: careerid)

	SigningKeyFile string // Optional: path to Ed25519 PEM signing key file (default: ./signing.pem)
	SigningKeyID   string // Optional: key identifier placed in the JWT header (default: primary)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./careerid.db)
	PepperFile     string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 168h)

	RequireEmailConfirmation bool // Gate sign in behind a confirmed email address (default: true)
	MaxMFAAttempts           int  // Failed code verifications allowed per challenge (default: 5)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("IDENTITY_ISSUER", "careerid"),
		SigningKeyFile: getEnvOrDefault("IDENTITY_SIGNING_KEY_FILE", "signing.pem"),
		SigningKeyID:   getEnvOrDefault("IDENTITY_SIGNING_KEY_ID", "primary"),
		DatabaseFile:   getEnvOrDefault("IDENTITY_DATABASE_FILE", "careerid.db"),
		PepperFile:     getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),

		AccessTTL:  getEnvDurationOrDefault("IDENTITY_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("IDENTITY_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		RequireEmailConfirmation: getEnvBoolOrDefault("IDENTITY_REQUIRE_EMAIL_CONFIRMATION", true),
		MaxMFAAttempts:           getEnvIntOrDefault("IDENTITY_MFA_MAX_ATTEMPTS", 0),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
