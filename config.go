package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dat0801/shopwave/database"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds every runtime setting, loaded once at startup.
type Config struct {
	Port string
	Env  string

	Postgres database.PostgresConfig

	RedisURL string
	CartTTL  time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	KafkaBrokers []string
	KafkaTopic   string

	SNSTopicARN string

	JWTSecret string
}

// LoadConfig reads configuration from the environment, with a .env file as a
// development convenience. Missing required values are fatal.
func LoadConfig(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("APP_ENV", "development"),
		Postgres: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "shopwave"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CartTTL:             getEnvDuration("CART_TTL_HOURS", 72) * time.Hour,
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getEnv("CURRENCY", "usd")),
		KafkaBrokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "shopwave-events"),
		SNSTopicARN:         os.Getenv("SNS_TOPIC_ARN"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
	}

	if cfg.StripeSecretKey == "" {
		logger.Fatal("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Fatal("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback int64) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
