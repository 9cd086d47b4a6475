package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173")
	t.Setenv("APP_BASE_URL", "https://app.example.com/")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("ABBREVIATION_CACHE_TTL", "5m")
	t.Setenv("TEMPLATE_SEND_INTERVAL", "1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GetAbbreviationCacheTTL() != 5*time.Minute {
		t.Fatalf("expected 5m abbreviation TTL, got %s", cfg.GetAbbreviationCacheTTL())
	}
	if cfg.GetTemplateSendInterval() != time.Second {
		t.Fatalf("expected 1s template interval, got %s", cfg.GetTemplateSendInterval())
	}
	if cfg.GetAppBaseURL() != "https://app.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.GetAppBaseURL())
	}
	if cfg.IsExtractionAIEnabled() {
		t.Fatal("expected AI extraction disabled without GEMINI_API_KEY")
	}
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for wildcard CORS with credentials")
	}
}
