package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Server Configuration
	HTTPPort int

	// CORSAllowedOrigins lists browser origins allowed to call the API; empty allows all
	CORSAllowedOrigins []string

	// Database Configuration
	DatabaseURL string
	DBLogLevel  string

	// Remote feed configuration
	FeedBaseURL string
	FeedTimeout time.Duration
	Feeds       []FeedDefinition
	// FeedPollInterval triggers background ingestion of every feed; zero disables it
	FeedPollInterval time.Duration

	// Enrichment lookup configuration
	EnrichBaseURL       string
	EnrichTimeout       time.Duration
	EnrichRatePerSecond float64
	EnrichBurst         int

	// BlacklistThreshold is the count at which an external IP is blacklisted
	// without consulting the enrichment lookup
	BlacklistThreshold int

	// Authentication Configuration
	AuthEnabled    bool
	AdminUsername  string
	AdminPassword  string
	JWTSecret      string
	JWTExpiryHours int

	// Slack notifications (optional)
	SlackBotToken      string
	SlackAlertsChannel string
}

// FeedDefinition describes one upstream paginated alert feed
type FeedDefinition struct {
	Name            string `yaml:"name"`
	Shape           string `yaml:"shape"`
	Path            string `yaml:"path"`
	DefaultPageSize int    `yaml:"default_page_size"`
}

// feedsFile is the layout of FEEDS_FILE
type feedsFile struct {
	Feeds []FeedDefinition `yaml:"feeds"`
}

// DefaultFeeds returns the two built-in feeds: "a" with integer severities
// and "b" with label severities
func DefaultFeeds() []FeedDefinition {
	return []FeedDefinition{
		{Name: "a", Shape: "int_severity", Path: "api/alerts/a", DefaultPageSize: 10},
		{Name: "b", Shape: "label_severity", Path: "api/alerts/b", DefaultPageSize: 10},
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// HTTP Port for API server
	cfg.HTTPPort = getEnvAsIntOrDefault("HTTP_PORT", 7080)
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Database configuration
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", "data/alerts.db")
	cfg.DBLogLevel = getEnvOrDefault("DB_LOG_LEVEL", "warn")

	// Remote feed configuration
	cfg.FeedBaseURL = withTrailingSlash(getEnvOrDefault("FEED_BASE_URL", "http://localhost:5000"))
	cfg.FeedTimeout = time.Duration(getEnvAsIntOrDefault("FEED_TIMEOUT_SECONDS", 30)) * time.Second
	cfg.FeedPollInterval = time.Duration(getEnvAsIntOrDefault("FEED_POLL_INTERVAL_SECONDS", 0)) * time.Second

	feeds, err := loadFeeds(os.Getenv("FEEDS_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Feeds = feeds

	// Enrichment defaults to the feed host
	cfg.EnrichBaseURL = withTrailingSlash(getEnvOrDefault("ENRICH_BASE_URL", cfg.FeedBaseURL))
	cfg.EnrichTimeout = time.Duration(getEnvAsIntOrDefault("ENRICH_TIMEOUT_SECONDS", 10)) * time.Second
	cfg.EnrichRatePerSecond = getEnvAsFloatOrDefault("ENRICH_RATE_PER_SECOND", 0)
	cfg.EnrichBurst = getEnvAsIntOrDefault("ENRICH_BURST", 1)

	cfg.BlacklistThreshold = getEnvAsIntOrDefault("BLACKLIST_THRESHOLD", 5)
	if cfg.BlacklistThreshold < 1 {
		return nil, fmt.Errorf("BLACKLIST_THRESHOLD must be at least 1, got %d", cfg.BlacklistThreshold)
	}

	// Authentication configuration
	cfg.AuthEnabled = getEnvAsBoolOrDefault("AUTH_ENABLED", false)
	cfg.AdminUsername = getEnvOrDefault("ADMIN_USERNAME", "admin")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD") // No default - must be set when auth is enabled
	cfg.JWTExpiryHours = getEnvAsIntOrDefault("JWT_EXPIRY_HOURS", 24)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		cfg.JWTSecret = generateSecureSecret(32)
		log.Printf("JWT_SECRET not set, generated an ephemeral secret (tokens will not survive restarts)")
	}

	cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")
	cfg.SlackAlertsChannel = os.Getenv("SLACK_ALERTS_CHANNEL")

	return cfg, nil
}

// Feed returns the definition named name
func (c *Config) Feed(name string) (FeedDefinition, bool) {
	for _, f := range c.Feeds {
		if f.Name == name {
			return f, true
		}
	}
	return FeedDefinition{}, false
}

// loadFeeds reads feed definitions from a YAML file, falling back to the defaults
func loadFeeds(path string) ([]FeedDefinition, error) {
	if path == "" {
		return DefaultFeeds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file %s: %w", path, err)
	}
	return ParseFeeds(data)
}

// ParseFeeds decodes a feeds YAML document
func ParseFeeds(data []byte) ([]FeedDefinition, error) {
	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}
	if len(file.Feeds) == 0 {
		return nil, fmt.Errorf("feeds file defines no feeds")
	}

	seen := make(map[string]bool, len(file.Feeds))
	for i := range file.Feeds {
		f := &file.Feeds[i]
		if f.Name == "" || f.Path == "" || f.Shape == "" {
			return nil, fmt.Errorf("feed #%d: name, shape and path are required", i+1)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate feed name %q", f.Name)
		}
		seen[f.Name] = true
		if f.DefaultPageSize <= 0 {
			f.DefaultPageSize = 10
		}
		f.Path = strings.TrimPrefix(f.Path, "/")
	}
	return file.Feeds, nil
}

// generateSecureSecret generates a cryptographically secure random string
func generateSecureSecret(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		log.Printf("Warning: Could not generate secure random bytes: %v", err)
		return "fallback-insecure-secret-please-set-jwt-secret-env"
	}
	return hex.EncodeToString(b)
}

// splitList splits a comma separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the value of an environment variable as an integer or a default value
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
