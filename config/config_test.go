package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Port)
	}
	if cfg.DefaultModel != "gpt-3.5-turbo" {
		t.Errorf("expected default model gpt-3.5-turbo, got %s", cfg.DefaultModel)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.RateLimit.PerMinute != 60 || cfg.RateLimit.PerDay != 10000 {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Metrics.SampleCapacity != 1000 {
		t.Errorf("expected sample capacity 1000, got %d", cfg.Metrics.SampleCapacity)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Errorf("unexpected addr %s", cfg.Addr())
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_INITIAL_INTERVAL", "2s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("expected openai api key from env, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.InitialInterval != 2*time.Second {
		t.Errorf("expected 2s initial interval, got %s", cfg.Retry.InitialInterval)
	}
	if !cfg.HasProviderCredential() {
		t.Error("expected provider credential to be detected")
	}
}

func TestFileLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("port: 8080\ndefault_model: gpt-4\nrate_limit:\n  per_minute: 10\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	// Env beats file, file beats defaults.
	t.Setenv("PORT", "7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("expected env port 7000 to win, got %d", cfg.Port)
	}
	if cfg.DefaultModel != "gpt-4" {
		t.Errorf("expected file model gpt-4, got %s", cfg.DefaultModel)
	}
	if cfg.RateLimit.PerMinute != 10 {
		t.Errorf("expected file per-minute limit 10, got %d", cfg.RateLimit.PerMinute)
	}
	if cfg.RateLimit.PerHour != 1000 {
		t.Errorf("expected default per-hour limit 1000, got %d", cfg.RateLimit.PerHour)
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestNoProviderCredential(t *testing.T) {
	cfg := Default()
	if cfg.HasProviderCredential() {
		t.Error("expected no provider credential in defaults")
	}
}
