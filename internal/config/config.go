package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// Document store. Empty MongoURI selects the in-memory store (dev/tests).
	MongoURI string
	MongoDB  string

	// Optional post-list cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret      string
	TokenTTL       time.Duration
	TimezoneName   string
	AllowedOrigins []string

	// Seed owner account, skipped when any field is empty.
	OwnerUsername string
	OwnerEmail    string
	OwnerPassword string

	RateLimit       int
	RateLimitWindow time.Duration
	MaxBodyBytes    int64

	OTLPEndpoint string
}

func Load() Config {
	// best effort; a missing .env is not an error
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "nomadblog"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 60)) * time.Minute,
		TimezoneName:   getEnv("CANONICAL_TZ", "Asia/Jakarta"),
		AllowedOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		OwnerUsername: getEnv("OWNER_USERNAME", ""),
		OwnerEmail:    getEnv("OWNER_EMAIL", ""),
		OwnerPassword: getEnv("OWNER_PASSWORD", ""),

		RateLimit:       getEnvInt("RATE_LIMIT", 100),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
