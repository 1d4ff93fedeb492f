package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port            string
	AllowedOrigins  []string
	LogLevel        string
	DatabaseURL     string
	DatabaseReadURL string // Read replica URL for aggregate and trending queries
	RedisURL        string
	AuthJWTSecret   string
	Environment     string

	// Client IP resolution; both empty means only the connection address is used
	TrustedProxyHeader string // single-value header set by the edge, e.g. CF-Connecting-IP
	TrustedProxyCount  int    // proxies appending to X-Forwarded-For

	Tracking TrackingConfig
}

// TrackingConfig tunes view admission, caching and timeouts
type TrackingConfig struct {
	ViewCooldown      time.Duration // dedup window per (session, post)
	ViewRateLimit     int64         // accepted attempts per (IP, post) per window
	ViewRateWindow    time.Duration
	StatsCacheTTL     time.Duration
	TrendingCacheTTL  time.Duration
	TrendingWindow    time.Duration
	TrendingMaxLimit  int
	StoreTimeout      time.Duration // bound on synchronous cache/store calls
	BackgroundTimeout time.Duration // bound on fire-and-forget tasks
}

// DefaultTrackingConfig returns the production defaults
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		ViewCooldown:      30 * time.Minute,
		ViewRateLimit:     10,
		ViewRateWindow:    time.Hour,
		StatsCacheTTL:     5 * time.Minute,
		TrendingCacheTTL:  time.Hour,
		TrendingWindow:    7 * 24 * time.Hour,
		TrendingMaxLimit:  50,
		StoreTimeout:      3 * time.Second,
		BackgroundTimeout: 10 * time.Second,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	defaults := DefaultTrackingConfig()

	return &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabaseReadURL: getEnv("DATABASE_READ_URL", getEnv("DATABASE_URL", "")), // Falls back to write DB if not set
		RedisURL:        getEnv("REDIS_URL", ""),
		AuthJWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
		Environment:     getEnv("ENVIRONMENT", "production"),

		TrustedProxyHeader: getEnv("TRUSTED_PROXY_HEADER", ""),
		TrustedProxyCount:  getIntEnv("TRUSTED_PROXY_COUNT", 0),

		Tracking: TrackingConfig{
			ViewCooldown:      getDurationEnv("VIEW_COOLDOWN", defaults.ViewCooldown),
			ViewRateLimit:     int64(getIntEnv("VIEW_RATE_LIMIT", int(defaults.ViewRateLimit))),
			ViewRateWindow:    getDurationEnv("VIEW_RATE_WINDOW", defaults.ViewRateWindow),
			StatsCacheTTL:     getDurationEnv("STATS_CACHE_TTL", defaults.StatsCacheTTL),
			TrendingCacheTTL:  getDurationEnv("TRENDING_CACHE_TTL", defaults.TrendingCacheTTL),
			TrendingWindow:    getDurationEnv("TRENDING_WINDOW", defaults.TrendingWindow),
			TrendingMaxLimit:  getIntEnv("TRENDING_MAX_LIMIT", defaults.TrendingMaxLimit),
			StoreTimeout:      getDurationEnv("STORE_TIMEOUT", defaults.StoreTimeout),
			BackgroundTimeout: getDurationEnv("BACKGROUND_TIMEOUT", defaults.BackgroundTimeout),
		},
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv parses a positive integer, falling back on anything else
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv parses values like "30m" or "1h"
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
