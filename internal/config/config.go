package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from the environment
type Config struct {
	ServerPort string
	LogLevel   string
	DB         *DBConfig

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	ResetTokenMaxAge   time.Duration
	DefaultFromAddress string
	PublicBaseURL      string

	SMTP  SMTPConfig
	Redis RedisConfig
}

// SMTPConfig is optional; an empty Host means reset mails are only logged.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// RedisConfig is optional; an empty Addr keeps reset-token bookkeeping in Postgres.
type RedisConfig struct {
	Addr     string
	Password string
}

// Load reads .env (if present) and the environment into a Config
func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:         getenv("SERVER_PORT", "8080"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		DB:                 dbCfg,
		JWTSecret:          os.Getenv("JWT_SECRET_KEY"),
		DefaultFromAddress: getenv("DEFAULT_FROM_EMAIL", "noreply@lms.local"),
		PublicBaseURL:      getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	accessMinutes, err := getint("JWT_ACCESS_TTL_MINUTES", 5)
	if err != nil {
		return nil, err
	}
	refreshHours, err := getint("JWT_REFRESH_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	resetSeconds, err := getint("PASSWORD_RESET_MAX_AGE_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	cfg.AccessTTL = time.Duration(accessMinutes) * time.Minute
	cfg.RefreshTTL = time.Duration(refreshHours) * time.Hour
	cfg.ResetTokenMaxAge = time.Duration(resetSeconds) * time.Second

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s=%q: must be a positive integer", key, v)
	}
	return n, nil
}
