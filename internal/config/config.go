package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AviationstackAPIKey string
	WeatherstackAPIKey  string

	// ModelArtifactPath points at the trained bundle loaded on first request.
	ModelArtifactPath string

	// Simulate serves deterministic features without touching external APIs.
	Simulate bool

	// AllowFallback substitutes a dummy flight when the lookup comes up empty.
	AllowFallback bool

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// RedisURL enables the shared weather cache; empty means in-process only.
	RedisURL        string
	WeatherCacheTTL time.Duration
	CacheMaxEntries int

	Port        string
	MetricsAddr string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.AviationstackAPIKey = os.Getenv("AVIATIONSTACK_API_KEY")
	cfg.WeatherstackAPIKey = os.Getenv("WEATHERSTACK_API_KEY")

	cfg.ModelArtifactPath = getenvDefault("MODEL_ARTIFACT", "models/flight_delay_bundle.json")

	cfg.Simulate = getenvBool("PREDICTOR_SIMULATE", false)
	cfg.AllowFallback = getenvBool("PREDICTOR_ALLOW_FALLBACK", true)

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.RedisURL = os.Getenv("REDIS_URL")

	ttlStr := getenvDefault("WEATHER_CACHE_TTL", "1h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_CACHE_TTL: %w", err)
	}
	cfg.WeatherCacheTTL = ttl
	cfg.CacheMaxEntries = getenvInt("WEATHER_CACHE_MAX_ENTRIES", 4096)

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.MetricsAddr = getenvDefault("METRICS_ADDR", ":9090")

	if cfg.Simulate {
		log.Printf("INFO: simulate mode enabled, external flight and weather APIs will not be called")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
