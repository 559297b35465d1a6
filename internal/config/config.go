package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Access policy defaults, used until an AccessSetting row is activated
	PageLockSeconds             int
	ActivityTimeoutSeconds      int
	ActivityPeriodCounter       int
	ActivityCounterMaxThreshold int
	MaxAdminsNumber             int
	MaxModersNumber             int

	// Export storage
	StoragePath string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		PageLockSeconds:             getEnvAsIntOrDefault("PAGE_LOCK_SECONDS", 60),
		ActivityTimeoutSeconds:      getEnvAsIntOrDefault("ACTIVITY_TIMEOUT_SECONDS", 60),
		ActivityPeriodCounter:       getEnvAsIntOrDefault("ACTIVITY_PERIOD_COUNTER", 5),
		ActivityCounterMaxThreshold: getEnvAsIntOrDefault("ACTIVITY_COUNTER_MAX_THRESHOLD", 10),
		MaxAdminsNumber:             getEnvAsIntOrDefault("MAX_ADMINS_NUMBER", 2),
		MaxModersNumber:             getEnvAsIntOrDefault("MAX_MODERS_NUMBER", 5),

		StoragePath: getEnvOrDefault("STORAGE_PATH", "./exports"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
