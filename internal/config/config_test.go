package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_PORT", "DATABASE_URL", "FEED_BASE_URL", "ENRICH_BASE_URL", "FEEDS_FILE",
		"BLACKLIST_THRESHOLD", "AUTH_ENABLED", "FEED_TIMEOUT_SECONDS", "ENRICH_RATE_PER_SECOND",
		"CORS_ALLOWED_ORIGINS", "FEED_POLL_INTERVAL_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 7080 {
		t.Errorf("HTTPPort = %d, want 7080", cfg.HTTPPort)
	}
	if cfg.DatabaseURL != "data/alerts.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.FeedBaseURL != "http://localhost:5000/" {
		t.Errorf("FeedBaseURL = %q, want trailing slash", cfg.FeedBaseURL)
	}
	if cfg.EnrichBaseURL != cfg.FeedBaseURL {
		t.Errorf("EnrichBaseURL = %q, want feed base %q", cfg.EnrichBaseURL, cfg.FeedBaseURL)
	}
	if cfg.FeedTimeout != 30*time.Second {
		t.Errorf("FeedTimeout = %v", cfg.FeedTimeout)
	}
	if cfg.BlacklistThreshold != 5 {
		t.Errorf("BlacklistThreshold = %d, want 5", cfg.BlacklistThreshold)
	}
	if cfg.AuthEnabled {
		t.Error("auth should be disabled by default")
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want none", cfg.CORSAllowedOrigins)
	}
	if cfg.FeedPollInterval != 0 {
		t.Errorf("FeedPollInterval = %v, want polling disabled", cfg.FeedPollInterval)
	}
	if len(cfg.Feeds) != 2 {
		t.Fatalf("expected 2 default feeds, got %d", len(cfg.Feeds))
	}
	if f, ok := cfg.Feed("b"); !ok || f.Shape != "label_severity" || f.Path != "api/alerts/b" {
		t.Errorf("unexpected feed b: %+v (found=%v)", f, ok)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("FEED_BASE_URL", "http://feeds.internal/")
	t.Setenv("ENRICH_BASE_URL", "http://enrich.internal")
	t.Setenv("BLACKLIST_THRESHOLD", "3")
	t.Setenv("ENRICH_RATE_PER_SECOND", "2.5")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("FEEDS_FILE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("FEED_POLL_INTERVAL_SECONDS", "300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.FeedPollInterval != 5*time.Minute {
		t.Errorf("FeedPollInterval = %v", cfg.FeedPollInterval)
	}
	if cfg.HTTPPort != 9000 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.FeedBaseURL != "http://feeds.internal/" {
		t.Errorf("FeedBaseURL = %q", cfg.FeedBaseURL)
	}
	if cfg.EnrichBaseURL != "http://enrich.internal/" {
		t.Errorf("EnrichBaseURL = %q", cfg.EnrichBaseURL)
	}
	if cfg.BlacklistThreshold != 3 {
		t.Errorf("BlacklistThreshold = %d", cfg.BlacklistThreshold)
	}
	if cfg.EnrichRatePerSecond != 2.5 {
		t.Errorf("EnrichRatePerSecond = %v", cfg.EnrichRatePerSecond)
	}
	if !cfg.AuthEnabled || cfg.JWTSecret != "s3cret" {
		t.Errorf("auth config not applied: enabled=%v secret=%q", cfg.AuthEnabled, cfg.JWTSecret)
	}
}

func TestLoad_RejectsZeroThreshold(t *testing.T) {
	t.Setenv("BLACKLIST_THRESHOLD", "0")
	t.Setenv("FEEDS_FILE", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero threshold")
	}
}

func TestLoad_FeedsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.yaml")
	content := `
feeds:
  - name: vendor
    shape: label_severity
    path: /v2/alerts
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write feeds file: %v", err)
	}
	t.Setenv("FEEDS_FILE", path)
	t.Setenv("BLACKLIST_THRESHOLD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	f, ok := cfg.Feed("vendor")
	if !ok {
		t.Fatal("vendor feed not loaded")
	}
	if f.Path != "v2/alerts" {
		t.Errorf("Path = %q, want leading slash trimmed", f.Path)
	}
	if f.DefaultPageSize != 10 {
		t.Errorf("DefaultPageSize = %d, want 10", f.DefaultPageSize)
	}
	if _, ok := cfg.Feed("a"); ok {
		t.Error("feeds file should replace the defaults")
	}
}

func TestParseFeeds_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "feeds: [:"},
		{"no feeds", "feeds: []"},
		{"missing path", "feeds:\n  - name: a\n    shape: int_severity\n"},
		{"duplicate", "feeds:\n  - {name: a, shape: int_severity, path: x}\n  - {name: a, shape: int_severity, path: y}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFeeds([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
