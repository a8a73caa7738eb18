package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything read from the environment at startup.
// Optional integrations (redis, rabbitmq, telegram) stay disabled when
// their keys are unset.
type Config struct {
	Environment string
	HTTPAddr    string
	DBDSN       string
	JWTSecret   string

	MigrationsPath string

	AMQPURL   string
	AMQPQueue string

	RedisAddr      string
	RosterCacheTTL time.Duration

	TelegramToken  string
	TelegramChatID int64
}

// Load reads configuration from the environment, applying a .env file
// first when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:    getEnv("ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DBDSN:          os.Getenv("DB_DSN"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "flightdesk.events"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	ttl, err := time.ParseDuration(getEnv("ROSTER_CACHE_TTL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROSTER_CACHE_TTL: %w", err)
	}
	cfg.RosterCacheTTL = ttl

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
