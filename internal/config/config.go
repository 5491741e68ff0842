package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries the runtime settings for the scan API.
type Config struct {
	Addr          string
	DatabaseDSN   string
	RedisAddr     string
	StorageBucket string
	ModelLocation string
	JWTSecret     string
	JWTAudience   string
}

// Load reads configuration from the environment. A .env file is applied
// first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:          getEnv("ADDR", ":8080"),
		DatabaseDSN:   getEnv("DATABASE_DSN", "host=postgres user=postgres password=postgres dbname=scans port=5432 sslmode=disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		StorageBucket: getEnv("STORAGE_BUCKET", "argotrack-scans"),
		ModelLocation: getEnv("MODEL_LOCATION", "models/tomato.onnx"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTAudience:   os.Getenv("JWT_AUDIENCE"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
