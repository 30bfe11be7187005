package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL    string
	Addr           string
	AllowedOrigins []string

	// PlacesAPIKey is optional: absence degrades intake to the
	// no-enrichment path, never a startup failure.
	PlacesAPIKey  string
	LookupTimeout time.Duration

	ModeratorJWTSecret string

	// RedisURL selects the shared rate-limit counter store; empty falls
	// back to the in-process store.
	RedisURL        string
	RateLimit       int
	RateLimitWindow time.Duration

	LogLevel  string
	LogFormat string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	addr := fmt.Sprintf(":%s", envOrDefault("PORT", "8080"))
	origins := parseAllowedOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))

	return Config{
		DatabaseURL:        dsn,
		Addr:               addr,
		AllowedOrigins:     origins,
		PlacesAPIKey:       os.Getenv("PLACES_API_KEY"),
		LookupTimeout:      envDuration("PLACE_LOOKUP_TIMEOUT", 5*time.Second),
		ModeratorJWTSecret: os.Getenv("MODERATOR_JWT_SECRET"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RateLimit:          envInt("SUBMISSION_RATE_LIMIT", 10),
		RateLimitWindow:    envDuration("SUBMISSION_RATE_WINDOW", time.Minute),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func parseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var origins []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
