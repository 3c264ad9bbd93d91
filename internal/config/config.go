package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-based settings
type Config struct {
	Environment   string
	ServerAddress string
	LogLevel      string
	DatabaseURL   string
	JWTSecret     string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string

	// schedule resolution
	ScheduleLocation *time.Location
	HorizonDays      int

	HeartbeatFreshness   time.Duration
	ScreenCacheSize      int
	ScreenCacheTTL       time.Duration
	RecomputeConcurrency int
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:   getenv("APP_ENV", "production"),
		ServerAddress: getenv("SERVER_ADDRESS", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" && !cfg.Development() {
		return nil, fmt.Errorf("DATABASE_URL is required outside development")
	}

	loc, err := time.LoadLocation(getenv("SCHEDULE_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
	}
	cfg.ScheduleLocation = loc

	if cfg.HorizonDays, err = intEnv("HORIZON_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.HorizonDays < 1 {
		return nil, fmt.Errorf("HORIZON_DAYS must be at least 1")
	}
	if cfg.HeartbeatFreshness, err = durationEnv("HEARTBEAT_FRESHNESS", 90*time.Second); err != nil {
		return nil, err
	}
	if cfg.ScreenCacheSize, err = intEnv("SCREEN_CACHE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.ScreenCacheTTL, err = durationEnv("SCREEN_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RecomputeConcurrency, err = intEnv("RECOMPUTE_CONCURRENCY", 8); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
