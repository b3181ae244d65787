package config

import (
	"testing"
	"time"
)

func TestParseRequiresDSNAndSecret(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := Parse(); err == nil {
		t.Fatalf("expected error without DB_DSN")
	}

	t.Setenv("DB_DSN", "postgres://localhost/counseling")
	t.Setenv("JWT_SECRET", "")
	if _, err := Parse(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestParseDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/counseling")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENV", "prod")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Errorf("expected prod to normalize to production, got %q", cfg.Environment)
	}
	if cfg.UnreadCacheTTL != 15*time.Second {
		t.Errorf("expected 15s unread cache ttl, got %s", cfg.UnreadCacheTTL)
	}
	if cfg.RequireDeclaredSlot {
		t.Errorf("expected slot membership check to be off by default")
	}
	if cfg.RedisEnabled() || cfg.TelegramEnabled() {
		t.Errorf("expected optional integrations to be disabled")
	}
	if cfg.Location() != time.UTC {
		t.Errorf("expected UTC location, got %s", cfg.Location())
	}
}

func TestParseRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/counseling")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := Parse(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestParseOptionalIntegrations(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/counseling")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("PUBLIC_URL", "https://counseling.example.com")
	t.Setenv("TEMPLATE_REFRESH_INTERVAL", "1h")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !cfg.RedisEnabled() || !cfg.TelegramEnabled() {
		t.Errorf("expected redis and telegram to be enabled")
	}
	if cfg.PublicURL != "https://counseling.example.com" {
		t.Errorf("unexpected public url %q", cfg.PublicURL)
	}
	if cfg.TemplateRefreshInterval != time.Hour {
		t.Errorf("expected 1h refresh interval, got %s", cfg.TemplateRefreshInterval)
	}
}
