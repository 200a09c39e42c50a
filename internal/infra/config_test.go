package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("WAVESPEED_API_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.WaveSpeedAPIURL != "https://api.wavespeed.ai" {
		t.Fatalf("WaveSpeedAPIURL mismatch: %q", cfg.WaveSpeedAPIURL)
	}
	if got := cfg.WebhookURL(); got != "http://localhost:8080/webhooks/wavespeed" {
		t.Fatalf("WebhookURL mismatch: %q", got)
	}
	if cfg.PollInterval != 2*time.Minute {
		t.Fatalf("PollInterval mismatch: %v", cfg.PollInterval)
	}
	if cfg.PollDelay != time.Minute {
		t.Fatalf("PollDelay mismatch: %v", cfg.PollDelay)
	}
	if cfg.PollBatch != 20 {
		t.Fatalf("PollBatch mismatch: %d", cfg.PollBatch)
	}
	if cfg.TestCreditsEnabled {
		t.Fatalf("test credits should be disabled by default")
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestWebhookURLTrimsTrailingSlash(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PUBLIC_BASE_URL", "https://app.example.com/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got := cfg.WebhookURL(); got != "https://app.example.com/webhooks/wavespeed" {
		t.Fatalf("WebhookURL mismatch: %q", got)
	}
}
