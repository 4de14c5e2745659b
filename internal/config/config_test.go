package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	os.Setenv("TEST_ENVOR_KEY", "custom")
	defer os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	os.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func TestEnvDurationOr(t *testing.T) {
	os.Unsetenv("TEST_DURATION_KEY")
	if got := envDurationOr("TEST_DURATION_KEY", time.Minute); got != time.Minute {
		t.Errorf("unset key = %v, want %v", got, time.Minute)
	}

	os.Setenv("TEST_DURATION_KEY", "30s")
	defer os.Unsetenv("TEST_DURATION_KEY")
	if got := envDurationOr("TEST_DURATION_KEY", time.Minute); got != 30*time.Second {
		t.Errorf("set key = %v, want %v", got, 30*time.Second)
	}

	// Unparseable value falls back
	os.Setenv("TEST_DURATION_KEY", "not-a-duration")
	if got := envDurationOr("TEST_DURATION_KEY", time.Minute); got != time.Minute {
		t.Errorf("invalid key = %v, want %v", got, time.Minute)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Clear all relevant env vars
	for _, k := range []string{"PORT", "DATABASE_URL", "SNAPSHOT_URL", "FRONTEND_ORIGIN", "REDIS_URL", "REDIS_PASSWORD", "POLL_INTERVAL", "INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET"} {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.FrontendOrigin != "*" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "*")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, time.Minute)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %v, want %v", cfg.FetchTimeout, 30*time.Second)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("POLL_INTERVAL", "5m")
	os.Setenv("FRONTEND_ORIGIN", "http://localhost:3000")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("POLL_INTERVAL")
		os.Unsetenv("FRONTEND_ORIGIN")
	}()

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DatabaseURL != "postgres://test" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://test")
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, 5*time.Minute)
	}
	if cfg.FrontendOrigin != "http://localhost:3000" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "http://localhost:3000")
	}
}
