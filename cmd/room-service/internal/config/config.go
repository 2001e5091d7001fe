package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         string
	CORSOrigin   string
	LogLevel     string
	CleanupGrace time.Duration

	// Optional Redis for rate limiting; empty addr disables it.
	RedisAddr string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
}

func LoadConfig() (*Config, error) {
	return &Config{
		Port:         getEnv("PORT", "3000"),
		CORSOrigin:   getEnv("CORS_ORIGIN", "*"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CleanupGrace: time.Duration(getEnvInt("ROOM_CLEANUP_GRACE", 5)) * time.Second,
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:  getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:     getEnv("S3_BUCKET", "plants-in-space"),
		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3UseSSL:     getEnv("S3_USE_SSL", "") == "true",
	}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
