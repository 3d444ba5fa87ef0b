package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL     string
	RedisURL        string // Empty means process-local locking
	TelegramToken   string // Empty disables the Telegram channel
	LogLevel        string
	Environment     string
	AppURL          string
	DefaultTimezone string
	HTTPAddr        string

	SMTP SMTPConfig

	LockTTL             time.Duration
	AlertDispatchWindow time.Duration

	CronSpecReports     string
	CronSpecRecurrence  string
	CronSpecWarranties  string
	CronSpecAlertsBuild string
	CronSpecAlertsSend  string
}

// SMTPConfig configures outbound mail.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	UseTLS      bool // Implicit TLS, usually port 465
	UseStartTLS bool
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}
	cfg.SMTP.FromAddress = os.Getenv("MAIL_FROM_ADDRESS")
	if cfg.SMTP.FromAddress == "" {
		return nil, fmt.Errorf("MAIL_FROM_ADDRESS is not set")
	}
	cfg.SMTP.Port, err = intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.FromName = stringEnv("MAIL_FROM_NAME", "Asset Manager")
	switch strings.ToLower(os.Getenv("SMTP_ENCRYPTION")) {
	case "tls", "ssl":
		cfg.SMTP.UseTLS = true
	case "starttls", "":
		cfg.SMTP.UseStartTLS = cfg.SMTP.Port != 25
	case "none":
	default:
		return nil, fmt.Errorf("invalid SMTP_ENCRYPTION %q", os.Getenv("SMTP_ENCRYPTION"))
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	cfg.LogLevel = strings.ToLower(stringEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(stringEnv("ENVIRONMENT", "development"))
	cfg.AppURL = strings.TrimRight(stringEnv("APP_URL", "http://localhost"), "/")
	cfg.DefaultTimezone = os.Getenv("DEFAULT_TIMEZONE")
	cfg.HTTPAddr = stringEnv("HTTP_ADDR", ":9090")

	cfg.LockTTL, err = durationEnv("LOCK_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.AlertDispatchWindow, err = durationEnv("ALERT_DISPATCH_WINDOW", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg.CronSpecReports = stringEnv("CRON_SPEC_REPORTS", "* * * * *")
	cfg.CronSpecRecurrence = stringEnv("CRON_SPEC_RECURRENCE", "0 * * * *")
	cfg.CronSpecWarranties = stringEnv("CRON_SPEC_WARRANTIES", "0 1 * * *")
	cfg.CronSpecAlertsBuild = stringEnv("CRON_SPEC_ALERTS_GENERATE", "@daily")
	cfg.CronSpecAlertsSend = stringEnv("CRON_SPEC_ALERTS_DISPATCH", "*/15 * * * *")

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return v, nil
}
