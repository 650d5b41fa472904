package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("DB_HOST", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected default DB host, got %s", cfg.Database.Host)
	}
	if cfg.Cache.Size != 500 {
		t.Errorf("Expected cache size 500, got %d", cfg.Cache.Size)
	}
	if cfg.Payments.ReconcileInterval != time.Minute {
		t.Errorf("Expected 1m reconcile interval, got %s", cfg.Payments.ReconcileInterval)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("SESSION_SECURE", "true")
	t.Setenv("MAX_UPLOAD_SIZE", "2048")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("Expected 50 max open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("Expected 30s window, got %s", cfg.RateLimit.Window)
	}
	if !cfg.Session.Secure {
		t.Error("Expected secure sessions")
	}
	if cfg.Upload.MaxUploadSize != 2048 {
		t.Errorf("Expected 2048 upload size, got %d", cfg.Upload.MaxUploadSize)
	}
}

func TestValidate_ProductionSessionSecret(t *testing.T) {
	cfg := &Config{
		Env:      "production",
		Database: DatabaseConfig{Host: "db", Name: "blog"},
		Session:  SessionConfig{Secret: defaultSessionSecret},
		Upload:   UploadConfig{WebPQuality: 80},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for default secret in production")
	}

	cfg.Session.Secret = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for short secret in production")
	}

	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_WebPQuality(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "db", Name: "blog"},
		Session:  SessionConfig{Secret: "x"},
		Upload:   UploadConfig{WebPQuality: 0},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for quality 0")
	}
}

func TestGetDSN(t *testing.T) {
	c := &DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=h port=1 user=u password=p dbname=n sslmode=disable"
	if got := c.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
