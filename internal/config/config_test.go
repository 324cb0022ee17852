package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openfield/crewmarket/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	os.Unsetenv("CREWMARKET_ADDR")
	os.Unsetenv("CREWMARKET_JWT_SECRET")
	os.Unsetenv("CREWMARKET_DATABASE_PATH")
	os.Unsetenv("CREWMARKET_WORKER_COUNT")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("default addr: %q", cfg.Addr)
	}
	if cfg.DatabasePath != "crewmarket.db" {
		t.Fatalf("default database path: %q", cfg.DatabasePath)
	}
	if cfg.Worker.Count != 4 {
		t.Fatalf("default worker count: %d", cfg.Worker.Count)
	}
	if cfg.Sweep.MaxAge != 0 {
		t.Fatalf("sweeping must default to disabled, got %v", cfg.Sweep.MaxAge)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	os.Setenv("CREWMARKET_ADDR", ":9999")
	os.Setenv("CREWMARKET_WORKER_COUNT", "2")
	defer os.Unsetenv("CREWMARKET_ADDR")
	defer os.Unsetenv("CREWMARKET_WORKER_COUNT")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("env addr: %q", cfg.Addr)
	}
	if cfg.Worker.Count != 2 {
		t.Fatalf("env worker count: %d", cfg.Worker.Count)
	}
}

func TestLoadConfig_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("addr: \":7070\"\njwt_secret: \"filesecret\"\nsweep:\n  max_age: 48h\n  interval: 1h\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.JWTSecret != "filesecret" {
		t.Fatalf("yaml overlay not applied: %#v", cfg)
	}
	if cfg.Sweep.MaxAge != 48*time.Hour || cfg.Sweep.Interval != time.Hour {
		t.Fatalf("sweep overlay not applied: %#v", cfg.Sweep)
	}

	if _, err := config.LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate_InsecureJWT_FailsWhenNotDevelopment(t *testing.T) {
	os.Setenv("CREWMARKET_ENV", "production")
	defer os.Unsetenv("CREWMARKET_ENV")

	cfg := &config.Config{
		Addr:          ":8080",
		JWTSecret:     "supersecretkey",
		APITimeout:    5 * time.Second,
		DatabasePath:  "crewmarket.db",
		TokenDuration: 1 * time.Hour,
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure JWT in non-development env")
	}
}

func TestValidate_InsecureJWT_AllowsDevelopment(t *testing.T) {
	os.Setenv("CREWMARKET_ENV", "development")
	defer os.Unsetenv("CREWMARKET_ENV")

	cfg := &config.Config{
		Addr:          ":8080",
		JWTSecret:     "supersecretkey",
		APITimeout:    5 * time.Second,
		DatabasePath:  "crewmarket.db",
		TokenDuration: 1 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_RejectsBrokenFields(t *testing.T) {
	cfg := &config.Config{
		Addr:          "",
		JWTSecret:     "strongsecret",
		DatabasePath:  "crewmarket.db",
		TokenDuration: 1 * time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for empty addr")
	}

	cfg.Addr = ":8080"
	cfg.TokenDuration = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for zero token duration")
	}
}
