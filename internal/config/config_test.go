package config

import (
	"errors"
	"testing"
	"time"
)

var allKeys = []string{
	"APP_ENV", "SITE_URL", "AJAX_URL", "AJAX_COOKIE", "HTTP_TIMEOUT", "DEBOUNCE",
	"STRICT_ORDERING", "STORAGE_TYPE", "STORAGE_DIR", "REDIS_ADDR", "REDIS_PASSWORD",
	"REDIS_DB", "REDIS_NAMESPACE", "DB_DSN", "HTTP_ADDR", "METRICS_ADDR",
	"RATE_LIMIT_PER_IP", "LOG_LEVEL", "LOG_FORMAT", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// clearEnv blanks every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != "dev" {
		t.Errorf("Expected AppEnv='dev', got '%s'", cfg.AppEnv)
	}
	if cfg.SiteURL != "http://localhost" {
		t.Errorf("Expected SiteURL='http://localhost', got '%s'", cfg.SiteURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("Expected HTTPTimeout=30s, got %s", cfg.HTTPTimeout)
	}
	if cfg.Debounce != time.Second {
		t.Errorf("Expected Debounce=1s, got %s", cfg.Debounce)
	}
	if !cfg.StrictOrdering {
		t.Error("Expected StrictOrdering=true")
	}
	if cfg.StorageType != "file" {
		t.Errorf("Expected StorageType='file', got '%s'", cfg.StorageType)
	}
	if cfg.StorageDir != ".condrules" {
		t.Errorf("Expected StorageDir='.condrules', got '%s'", cfg.StorageDir)
	}
	if cfg.RateLimitPerIP != 100 {
		t.Errorf("Expected RateLimitPerIP=100, got %d", cfg.RateLimitPerIP)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("Expected LogFormat='console', got '%s'", cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AJAX_URL", "https://example.com/wp-admin/admin-ajax.php")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("DEBOUNCE", "250ms")
	t.Setenv("STRICT_ORDERING", "false")
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_PER_IP", "200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AjaxURL != "https://example.com/wp-admin/admin-ajax.php" {
		t.Errorf("Unexpected AjaxURL %q", cfg.AjaxURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("Expected HTTPTimeout=5s, got %s", cfg.HTTPTimeout)
	}
	if cfg.Debounce != 250*time.Millisecond {
		t.Errorf("Expected Debounce=250ms, got %s", cfg.Debounce)
	}
	if cfg.StrictOrdering {
		t.Error("Expected StrictOrdering=false")
	}
	if cfg.StorageType != "redis" || cfg.RedisDB != 3 {
		t.Errorf("Expected redis db 3, got %s db %d", cfg.StorageType, cfg.RedisDB)
	}
	if cfg.RateLimitPerIP != 200 {
		t.Errorf("Expected RateLimitPerIP=200, got %d", cfg.RateLimitPerIP)
	}
}

func validConfig() *Config {
	return &Config{
		SiteURL:        "http://localhost",
		HTTPTimeout:    30 * time.Second,
		Debounce:       time.Second,
		StorageType:    "memory",
		HTTPAddr:       ":8080",
		MetricsAddr:    ":9090",
		RateLimitPerIP: 100,
		LogFormat:      "json",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown storage", func(c *Config) { c.StorageType = "sqlite" }, "STORAGE_TYPE"},
		{"file without dir", func(c *Config) { c.StorageType = "file" }, "STORAGE_DIR"},
		{"redis without addr", func(c *Config) { c.StorageType = "redis" }, "REDIS_ADDR"},
		{"postgres without dsn", func(c *Config) { c.StorageType = "postgres" }, "DB_DSN"},
		{"no endpoint", func(c *Config) { c.SiteURL = "" }, "SITE_URL"},
		{"ajax url only", func(c *Config) { c.SiteURL = ""; c.AjaxURL = "http://x/ajax" }, ""},
		{"zero debounce", func(c *Config) { c.Debounce = 0 }, "DEBOUNCE"},
		{"negative timeout", func(c *Config) { c.HTTPTimeout = -time.Second }, "HTTP_TIMEOUT"},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, ""},
		{"no http addr", func(c *Config) { c.HTTPAddr = "" }, "HTTP_ADDR"},
		{"no metrics addr", func(c *Config) { c.MetricsAddr = "" }, "METRICS_ADDR"},
		{"zero rate limit", func(c *Config) { c.RateLimitPerIP = 0 }, "RATE_LIMIT_PER_IP"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}
