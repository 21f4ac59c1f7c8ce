package config

import (
	"os"
	"strconv"
	"time"

	"bowling_engine/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	// пустой DATABASE_URL - хранилище в памяти процесса
	DatabaseURL string

	// пустой REDIS_ADDR - очередь и дедупликация в памяти процесса
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WorkerPartitions int
	DedupTTL         time.Duration
	OutboxInterval   time.Duration

	LogLevel string
	LogJSON  bool
}

// Load читает .env (если он есть) и переменные окружения
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to read .env", "error", err)
	}
	return FromEnv()
}

// FromEnv собирает конфиг только из окружения
func FromEnv() Config {
	return Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		WorkerPartitions: getInt("WORKER_PARTITIONS", 4),
		DedupTTL:         getDuration("DEDUP_TTL", 24*time.Hour),
		OutboxInterval:   getDuration("OUTBOX_INTERVAL", 5*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogJSON:          os.Getenv("LOG_FORMAT") == "json",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("invalid integer in env, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration in env, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
