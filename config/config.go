package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr     string
	BackendURL     string
	SessionSecret  string
	SessionTTL     time.Duration
	MysqlDSN       string
	RedisAddr      string
	AllowedOrigins []string
	LogLevel       slog.Level
	SecureCookies  bool
}

var Cfg *Config

// Load reads the environment, after an optional .env file in the working
// directory. Empty values take the defaults below.
func Load() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := &Config{
		ServerAddr:     ":" + getEnv("PORT", "8080"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:3000/api/v1"),
		SessionSecret:  getEnv("SESSION_SECRET", "inkline-secret-key-change-in-production"),
		MysqlDSN:       os.Getenv("MYSQL_DSN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		SecureCookies:  getEnv("SECURE_COOKIES", "false") == "true",
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return errors.New("SESSION_TTL: " + err.Error())
	}
	cfg.SessionTTL = ttl

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return errors.New("LOG_LEVEL: " + err.Error())
	}

	Cfg = cfg
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
