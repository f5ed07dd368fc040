package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Port                     string
	AllowedOrigin            string
	StoreDriver              string
	BoltPath                 string
	DatabaseURL              string
	ShopID                   string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	DashboardCacheTTLSeconds int
	Timezone                 string
	SessionSecret            string
	SessionTTLMinutes        int
	ShopPassword             string
	FlushSchedule            string
	LogMode                  string
	LogFile                  string
	NodeID                   int64
}

// Load reads the environment. A .env file in the working directory is
// applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:                     getEnv("PORT", "8080"),
		AllowedOrigin:            getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		StoreDriver:              strings.ToLower(getEnv("STORE_DRIVER", "bolt")),
		BoltPath:                 getEnv("BOLT_PATH", "pharmapos.db"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		ShopID:                   getEnv("SHOP_ID", "main-shop"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  cast.ToInt(getEnv("REDIS_DB", "0")),
		DashboardCacheTTLSeconds: positiveInt("DASHBOARD_CACHE_TTL_SECONDS", 30),
		Timezone:                 getEnv("SHOP_TIMEZONE", "Asia/Dhaka"),
		SessionSecret:            strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionTTLMinutes:        positiveInt("SESSION_TTL_MINUTES", 720),
		ShopPassword:             strings.TrimSpace(os.Getenv("SHOP_PASSWORD")),
		FlushSchedule:            getEnv("FLUSH_SCHEDULE", "@every 1m"),
		LogMode:                  strings.ToLower(getEnv("LOG_MODE", "development")),
		LogFile:                  os.Getenv("LOG_FILE"),
		NodeID:                   cast.ToInt64(getEnv("NODE_ID", "1")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location falls back to UTC when the configured zone is unknown.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("unknown SHOP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func positiveInt(key string, fallback int) int {
	n, err := cast.ToIntE(getEnv(key, ""))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
