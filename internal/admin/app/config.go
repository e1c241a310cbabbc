package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/scripthub/pkg/csrfx"
	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
)

type Config struct {
	Issuer            string        // Optional: issuer claim for tokens (default: scripthub-admin)
	TokenSecret       string        // Optional: HMAC secret, at least 32 bytes. Generated per process when empty
	OwnerPasswordHash string        // Required: argon2id PHC hash of the owner password
	OwnerTOTPSecret   string        // Optional: base32 TOTP secret; enables the second factor
	DatabaseFile      string        // Optional: path to SQLite database file (default: ./admin.db)
	SeedFile          string        // Optional: backup document loaded as the initial catalog
	AccessTTL         time.Duration // Optional: access token lifetime (default: 24h)
	RefreshTTL        time.Duration // Optional: refresh token lifetime (default: 30 days)
	CSRFTTL           time.Duration // Optional: CSRF nonce lifetime (default: 1h)
	AuditCapacity     int           // Optional: audit entries kept in memory (default: 1000)

	RateLimitStore    string // Rate limit counter store (memory, redis) (default: memory)
	RedisURL          string // Redis URL when RateLimitStore is redis
	TrustProxyHeaders bool   // Take the client IP from X-Forwarded-For / X-Real-IP (default: false)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1m)
}

func LoadConfig() Config {
	return Config{
		Issuer:            getEnvOrDefault("ADMIN_ISSUER", "scripthub-admin"),
		TokenSecret:       os.Getenv("ADMIN_TOKEN_SECRET"),
		OwnerPasswordHash: os.Getenv("ADMIN_OWNER_PASSWORD_HASH"),
		OwnerTOTPSecret:   os.Getenv("ADMIN_OWNER_TOTP_SECRET"),
		DatabaseFile:      getEnvOrDefault("ADMIN_DATABASE_FILE", "admin.db"),
		SeedFile:          os.Getenv("ADMIN_SEED_FILE"),
		AccessTTL:         getEnvDurationOrDefault("ADMIN_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:        getEnvDurationOrDefault("ADMIN_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		CSRFTTL:           getEnvDurationOrDefault("ADMIN_CSRF_TTL", csrfx.DefaultTTL),
		AuditCapacity:     getEnvIntOrDefault("ADMIN_AUDIT_CAPACITY", 1000),

		RateLimitStore:    getEnvOrDefault("RATELIMIT_STORE", "memory"),
		RedisURL:          os.Getenv("REDIS_URL"),
		TrustProxyHeaders: getEnvBoolOrDefault("TRUST_PROXY_HEADERS", false),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
	}
}

// SecureCookies reports whether cookies get the Secure flag and responses
// carry HSTS.
func (c Config) SecureCookies() bool { return c.Env == "prod" }

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

	if b, err := strconv.ParseBool(value); err == nil {
		return b
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
