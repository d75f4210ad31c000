// Package config reads the service settings from the environment and an optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Session   SessionConfig
	Auth      AuthConfig
	Assistant AssistantConfig
	Sync      SyncConfig
}

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFile   string
	GraphFile string
}

type SessionConfig struct {
	RedisURL string
	TTL      time.Duration
	// EncryptionKey is a base64 AES-256 key. When set, stored sessions are sealed.
	EncryptionKey string
	// FallbackKeys are comma-separated base64 keys still accepted for reading.
	FallbackKeys string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type AssistantConfig struct {
	Provider string // "openai", "ollama" or "none"
	APIKey   string
	BaseURL  string
	Model    string
}

type SyncConfig struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	FailureRate float64
}

// DefaultJWTSecret is only suitable for local runs.
const DefaultJWTSecret = "skphelp-dev-secret"

// Load reads envFiles (".env" when none are given) into the environment,
// without overriding variables already set, and builds the Config.
// A missing file is not an error.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		App: AppConfig{
			Port:      getEnv("APP_PORT", "8080"),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFile:   getEnv("LOG_FILE", ""),
			GraphFile: getEnv("GRAPH_FILE", ""),
		},
		Session: SessionConfig{
			RedisURL:      getEnv("REDIS_URL", ""),
			TTL:           getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			EncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", ""),
			FallbackKeys:  getEnv("SESSION_ENCRYPTION_FALLBACK_KEYS", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 8*time.Hour),
		},
		Assistant: AssistantConfig{
			Provider: getEnv("LLM_PROVIDER", "none"),
			APIKey:   getEnv("LLM_API_KEY", ""),
			BaseURL:  getEnv("LLM_BASE_URL", ""),
			Model:    getEnv("LLM_MODEL", ""),
		},
		Sync: SyncConfig{
			MinDelay:    getEnvAsDuration("SYNC_MIN_DELAY", 1500*time.Millisecond),
			MaxDelay:    getEnvAsDuration("SYNC_MAX_DELAY", 3000*time.Millisecond),
			FailureRate: getEnvAsFloat("SYNC_FAILURE_RATE", 0.05),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return f
	}
	return fallback
}
