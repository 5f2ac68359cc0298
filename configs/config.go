package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	Port              string
	DBDriver          string
	DatabaseURI       string
	RedisURI          string
	FrontendURL       string
	CheckSchedule     string
	RequeueSchedule   string
	PublishingTimeout time.Duration
	R2                R2
	SecretKey         string
	CookieName        string
	AdminPassword     string
}

func LoadConfig() *Config {
	return &Config{
		Port:              getEnv("PORT", "3000"),
		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		DatabaseURI:       getEnv("DATABASE_URI", ""),
		RedisURI:          getEnv("REDIS_URI", ""),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		CheckSchedule:     getEnv("CHECK_SCHEDULE", "@every 1m"),
		RequeueSchedule:   getEnv("REQUEUE_SCHEDULE", "@every 5m"),
		PublishingTimeout: getDuration("PUBLISHING_TIMEOUT", 10*time.Minute),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "fooodis_session"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// bare numbers are minutes
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Minute
	}
	slog.Warn("invalid duration, using default", "key", key, "value", value, "default", defaultValue)
	return defaultValue
}
