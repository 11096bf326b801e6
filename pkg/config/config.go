package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	// Storage
	StorageDriver string // "postgres" or "memory"
	DBHost        string
	DBPort        int
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	AutoMigrate   bool

	// Cache
	RedisURL            string // empty disables Redis; the in-process cache takes over
	SearchCacheTTL      time.Duration
	StatsInterval       time.Duration
	RateLimitPerMinute  int
	CORSAllowedOrigins  []string
	JWTSecret           string
	TokenTTL            time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("SEARCH_CACHE_TTL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_CACHE_TTL_SECONDS: %w", err)
	}

	statsInterval, err := strconv.Atoi(getEnv("STATS_INTERVAL_MINUTES", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_INTERVAL_MINUTES: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	tokenTTL, err := strconv.Atoi(getEnv("TOKEN_TTL_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_MINUTES: %w", err)
	}

	driver := getEnv("STORAGE_DRIVER", "postgres")
	if driver != "postgres" && driver != "memory" {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q (want postgres or memory)", driver)
	}

	return &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		ServerPort:    port,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StorageDriver: driver,
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        dbPort,
		DBUser:        getEnv("DB_USER", "travelapi"),
		DBPassword:    getEnv("DB_PASSWORD", "dev"),
		DBName:        getEnv("DB_NAME", "travelapi"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		AutoMigrate:   boolEnv("AUTO_MIGRATE", true),
		RedisURL:      os.Getenv("REDIS_URL"),

		SearchCacheTTL:     time.Duration(cacheTTL) * time.Second,
		StatsInterval:      time.Duration(statsInterval) * time.Minute,
		RateLimitPerMinute: rateLimit,
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  time.Duration(tokenTTL) * time.Minute,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func boolEnv(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
