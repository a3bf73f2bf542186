package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// minJWTSecretLength is the shortest HS256 secret Load accepts
const minJWTSecretLength = 32

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	BaseURL          string
	FrontendURL      string
	EnableHSTS       bool
	JWTSecret        string
	JWTTTL           time.Duration
	SharedMode       bool
	RateLimit        string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	RecycleRetention time.Duration
	PurgeDelay       time.Duration
	GCInterval       time.Duration
	OpenAPIPath      string
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "3001"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3001"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           getEnvDuration("JWT_TTL", 7*24*time.Hour),
		SharedMode:       getEnvBool("SHARED_MODE", false),
		RateLimit:        getEnv("RATE_LIMIT", "20-S"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		RecycleRetention: getEnvDuration("RECYCLE_RETENTION", 30*24*time.Hour),
		PurgeDelay:       getEnvDuration("RECYCLE_PURGE_DELAY", 5*time.Minute),
		GCInterval:       getEnvDuration("RECYCLE_GC_INTERVAL", time.Hour),
		OpenAPIPath:      getEnv("OPENAPI_PATH", "api/openapi/openapi.yaml"),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET is required and must be at least %d characters", minJWTSecretLength)
	}

	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}

	if cfg.RecycleRetention <= 0 {
		return nil, fmt.Errorf("RECYCLE_RETENTION must be positive")
	}

	if cfg.PurgeDelay < 0 {
		return nil, fmt.Errorf("RECYCLE_PURGE_DELAY must not be negative")
	}

	if cfg.GCInterval <= 0 {
		return nil, fmt.Errorf("RECYCLE_GC_INTERVAL must be positive")
	}

	return cfg, nil
}

// RequireRabbitMQ returns an error when no broker is configured
func (c *Config) RequireRabbitMQ() error {
	if c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for the recycle bin purge worker")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
