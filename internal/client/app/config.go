package app

import (
	"os"
	"time"
)

type Config struct {
	APIBaseURL    string // Base URL of the Lodge backend
	DatabaseFile  string // Path to the SQLite state file (default: ./lodge.db)
	MasterKeyPath string // Optional: path to the master key sealing the token at rest

	RevalidateInterval time.Duration // Session re-validation interval (default: 45m)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	return Config{
		APIBaseURL:         getEnvOrDefault("LODGE_API_URL", "http://localhost:3000"),
		DatabaseFile:       getEnvOrDefault("LODGE_DATABASE_FILE", "lodge.db"),
		MasterKeyPath:      os.Getenv("LODGE_MASTER_KEY_PATH"),
		RevalidateInterval: getEnvDurationOrDefault("LODGE_REVALIDATE_INTERVAL", 45*time.Minute),
		Env:                getEnvOrDefault("ENV", "dev"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
