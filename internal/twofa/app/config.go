package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer     string // Required: issuer claim on step-up grants
	TOTPIssuer string // Optional: issuer label shown in authenticator apps (default: Huddle)

	NumKeys         int           // Optional: number of grant signing keys to generate (default: 3)
	GrantTTL        time.Duration // Optional: step-up grant lifetime (default: 5m)
	TrustedJWKSFile string        // Optional: path to the identity service JWKS for inbound tokens
	TrustedIssuer   string        // Optional: required issuer on inbound identity tokens

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./twofa.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 10m)

	// EnrollmentSettleDelay and StepUpTickInterval tune flow timing. Zero
	// means the flow defaults; tests compress them.
	EnrollmentSettleDelay time.Duration
	StepUpTickInterval    time.Duration
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               os.Getenv("TWOFA_ISSUER"),
		TOTPIssuer:           getEnvOrDefault("TWOFA_TOTP_ISSUER", "Huddle"),
		GrantTTL:             getEnvDurationOrDefault("TWOFA_GRANT_TTL", 5*time.Minute),
		TrustedJWKSFile:      os.Getenv("TWOFA_TRUSTED_JWKS_FILE"),
		TrustedIssuer:        os.Getenv("TWOFA_TRUSTED_ISSUER"),
		DatabaseFile:         getEnvOrDefault("TWOFA_DATABASE_FILE", "twofa.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 10*time.Minute),
	}

	// Parse number of signing keys (default: 3)
	if numKeysStr := os.Getenv("TWOFA_NUM_KEYS"); numKeysStr != "" {
		if numKeys, err := strconv.Atoi(numKeysStr); err == nil {
			cfg.NumKeys = numKeys
		}
		// If parsing fails, NumKeys remains 0 (KeyManager applies its default)
	}
	if cfg.NumKeys == 0 {
		cfg.NumKeys = 3
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "huddle-twofa"
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g. "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes for convenience
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
