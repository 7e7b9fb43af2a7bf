// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	RateLimiter RateLimiterConfig
	Contact     ContactConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port            string
	CORSAllowOrigin string
}

type StorageConfig struct {
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimiterConfig struct {
	Rule domain.RateLimitRule
	// SweepInterval zero faz a limpeza de expirados rodar a cada verificação.
	SweepInterval time.Duration
}

type ContactConfig struct {
	OwnerEmail string
	OwnerName  string
	FromEmail  string
}

type LogConfig struct {
	Level zerolog.Level
}

func Load() (Config, error) {
	_ = godotenv.Load()

	server := ServerConfig{
		Port:            getEnv("SERVER_PORT", "8080"),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),
	}

	storageType := strings.ToLower(getEnv("STORAGE_TYPE", "memory"))
	if storageType != "memory" && storageType != "redis" {
		return Config{}, fmt.Errorf("unsupported STORAGE_TYPE: %s", storageType)
	}

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return Config{
		Server: server,
		Storage: StorageConfig{
			Type:  storageType,
			Redis: redisConfig,
		},
		RateLimiter: rateLimiterConfig,
		Contact: ContactConfig{
			OwnerEmail: getEnv("CONTACT_OWNER_EMAIL", "owner@example.com"),
			OwnerName:  getEnv("CONTACT_OWNER_NAME", "Portfolio"),
			FromEmail:  getEnv("CONTACT_FROM_EMAIL", "info@example.com"),
		},
		Log: LogConfig{Level: level},
	}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	requests, err := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "5"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}
	windowSeconds, err := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "3600"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: %w", err)
	}
	sweepSeconds, err := strconv.Atoi(getEnv("RATE_LIMIT_SWEEP_INTERVAL_SECONDS", "0"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_SWEEP_INTERVAL_SECONDS: %w", err)
	}
	if sweepSeconds < 0 {
		return RateLimiterConfig{}, fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL_SECONDS must not be negative")
	}

	rule := domain.RateLimitRule{
		Requests: requests,
		Window:   time.Duration(windowSeconds) * time.Second,
	}
	if err := rule.Validate(); err != nil {
		return RateLimiterConfig{}, err
	}

	return RateLimiterConfig{
		Rule:          rule,
		SweepInterval: time.Duration(sweepSeconds) * time.Second,
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
