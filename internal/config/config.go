package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries environment-driven settings for the API server.
type Config struct {
	ListenAddr  string
	Environment string

	PostgresDSN string
	RedisAddr   string

	SessionCookieName string
	SessionTTL        time.Duration

	// General API quota.
	RateLimitMax    int
	RateLimitWindow time.Duration
	// Stricter quota for authentication endpoints.
	AuthRateLimitMax    int
	AuthRateLimitWindow time.Duration

	UploadDir   string
	MaxFileSize int64

	ResetTokenSecret string
}

const (
	defaultListenAddr  = ":8080"
	defaultCookieName  = "starter_kit.session_token"
	defaultSessionTTL  = 7 * 24 * time.Hour
	defaultUploadDir   = "./uploads"
	defaultMaxFileSize = 5 << 20
)

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		ListenAddr:  envString("LISTEN_ADDR", defaultListenAddr),
		Environment: envString("APP_ENV", "development"),

		PostgresDSN: os.Getenv("PG_DSN"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		SessionCookieName: envString("SESSION_COOKIE_NAME", defaultCookieName),
		SessionTTL:        envDuration("SESSION_TTL", defaultSessionTTL),

		RateLimitMax:        envInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow:     envDuration("RATE_LIMIT_WINDOW", time.Minute),
		AuthRateLimitMax:    envInt("AUTH_RATE_LIMIT_MAX", 5),
		AuthRateLimitWindow: envDuration("AUTH_RATE_LIMIT_WINDOW", time.Minute),

		UploadDir:   envString("UPLOAD_DIR", defaultUploadDir),
		MaxFileSize: envInt64("MAX_FILE_SIZE", defaultMaxFileSize),

		ResetTokenSecret: os.Getenv("RESET_TOKEN_SECRET"),
	}
}

// IsProduction reports whether production hardening (CSP header) applies.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("1m") or bare milliseconds ("60000").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
