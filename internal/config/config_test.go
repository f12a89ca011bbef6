package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SessionCookieName != "starter_kit.session_token" {
		t.Errorf("SessionCookieName = %q", cfg.SessionCookieName)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.RateLimitMax != 100 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("api quota = %d/%v", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.AuthRateLimitMax != 5 || cfg.AuthRateLimitWindow != time.Minute {
		t.Errorf("auth quota = %d/%v", cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow)
	}
	if cfg.MaxFileSize != 5<<20 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if cfg.IsProduction() {
		t.Error("default environment must not be production")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("RATE_LIMIT_MAX", "42")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg := Load()
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if !cfg.IsProduction() {
		t.Error("APP_ENV=Production should count as production")
	}
	if cfg.RateLimitMax != 42 {
		t.Errorf("RateLimitMax = %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v", cfg.RateLimitWindow)
	}
}

func TestEnvDurationAcceptsMilliseconds(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "60000")
	cfg := Load()
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v, want 1m", cfg.RateLimitWindow)
	}
}

func TestEnvGarbageFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	cfg := Load()
	if cfg.RateLimitMax != 100 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("garbage should fall back to defaults, got %d/%v", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
}
