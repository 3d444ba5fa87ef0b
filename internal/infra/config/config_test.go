package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/assets?sslmode=disable")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("MAIL_FROM_ADDRESS", "noreply@example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AlertDispatchWindow != 7*24*time.Hour {
		t.Errorf("AlertDispatchWindow = %s, want 168h", cfg.AlertDispatchWindow)
	}
	if cfg.CronSpecReports != "* * * * *" || cfg.CronSpecRecurrence != "0 * * * *" ||
		cfg.CronSpecWarranties != "0 1 * * *" || cfg.CronSpecAlertsBuild != "@daily" {
		t.Errorf("unexpected default cron specs: %+v", cfg)
	}
	if cfg.SMTP.Port != 587 || !cfg.SMTP.UseStartTLS {
		t.Errorf("SMTP defaults = %+v", cfg.SMTP)
	}
	if cfg.LogLevel != "info" || cfg.Environment != "development" {
		t.Errorf("LogLevel=%q Environment=%q", cfg.LogLevel, cfg.Environment)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "SMTP_HOST", "MAIL_FROM_ADDRESS"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")
			if _, err := Load(); err == nil {
				t.Errorf("Load() without %s succeeded", key)
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LOCK_TTL", "90s")
	t.Setenv("SMTP_ENCRYPTION", "tls")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("APP_URL", "https://assets.example.com/")
	t.Setenv("CRON_SPEC_REPORTS", "*/2 * * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LockTTL != 90*time.Second {
		t.Errorf("LockTTL = %s", cfg.LockTTL)
	}
	if !cfg.SMTP.UseTLS || cfg.SMTP.UseStartTLS || cfg.SMTP.Port != 465 {
		t.Errorf("SMTP = %+v", cfg.SMTP)
	}
	if cfg.AppURL != "https://assets.example.com" {
		t.Errorf("AppURL = %q", cfg.AppURL)
	}
	if cfg.CronSpecReports != "*/2 * * * *" {
		t.Errorf("CronSpecReports = %q", cfg.CronSpecReports)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("ALERT_DISPATCH_WINDOW", "a week")
	if _, err := Load(); err == nil {
		t.Error("Load() accepted malformed ALERT_DISPATCH_WINDOW")
	}
}
