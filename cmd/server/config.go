package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"sequence-platform/backend/internal/store"
)

// Config holds all configuration values for the application
type Config struct {
	// Server configuration
	ServerPort  string
	Environment string

	// Optional Redis mirror of live state
	RedisEnabled bool
	RedisConfig  store.RedisConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() Config {
	// Load .env file if it exists
	godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		Environment:  getEnv("ENV", "development"),
		RedisEnabled: getEnv("REDIS_ENABLED", "false") == "true",
		RedisConfig: store.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
	}
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
