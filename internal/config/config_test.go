package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.DefaultUnits != "metric" {
		t.Errorf("DefaultUnits = %q, want metric", cfg.DefaultUnits)
	}
	if cfg.GeoLimit != 1 {
		t.Errorf("GeoLimit = %d, want 1", cfg.GeoLimit)
	}
	if cfg.CacheTTL != 300*time.Second {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.CacheCapacity != 512 {
		t.Errorf("CacheCapacity = %d, want 512", cfg.CacheCapacity)
	}
	if cfg.ConnectTimeout != 3500*time.Millisecond {
		t.Errorf("ConnectTimeout = %v, want 3.5s", cfg.ConnectTimeout)
	}
	if cfg.ReadTimeout != 7*time.Second {
		t.Errorf("ReadTimeout = %v, want 7s", cfg.ReadTimeout)
	}
	if cfg.RetryAttempts != 4 {
		t.Errorf("RetryAttempts = %d, want 4", cfg.RetryAttempts)
	}
	if cfg.AllowedOrigin != "http://localhost:5000" {
		t.Errorf("AllowedOrigin = %q, want http://localhost:5000", cfg.AllowedOrigin)
	}
	if cfg.RateLimitRPS != 0 {
		t.Errorf("RateLimitRPS = %d, want 0 (disabled)", cfg.RateLimitRPS)
	}
	if cfg.WarmLocations != nil {
		t.Errorf("WarmLocations = %v, want nil", cfg.WarmLocations)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() succeeded without OPENWEATHER_API_KEY")
	}
	if !strings.Contains(err.Error(), "OPENWEATHER_API_KEY") {
		t.Errorf("error %q does not name the missing key", err)
	}
}

func TestLoad_InvalidDefaultUnits(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("DEFAULT_UNITS", "kelvin-ish")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted an invalid DEFAULT_UNITS")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("PORT", "8080")
	t.Setenv("DEFAULT_UNITS", "Imperial")
	t.Setenv("CACHE_TTL", "60")
	t.Setenv("HTTP_TIMEOUT", "1.5,4")
	t.Setenv("RATE_LIMIT_RPS", "10")
	t.Setenv("WARM_LOCATIONS", "London, Paris ,,Tokyo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DefaultUnits != "imperial" {
		t.Errorf("DefaultUnits = %q, want imperial (lowercased)", cfg.DefaultUnits)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v, want 1m", cfg.CacheTTL)
	}
	if cfg.ConnectTimeout != 1500*time.Millisecond || cfg.ReadTimeout != 4*time.Second {
		t.Errorf("timeouts = %v,%v, want 1.5s,4s", cfg.ConnectTimeout, cfg.ReadTimeout)
	}
	if cfg.RateLimitBurst != 20 {
		t.Errorf("RateLimitBurst = %d, want 20 (defaulted to 2x RPS)", cfg.RateLimitBurst)
	}
	want := []string{"London", "Paris", "Tokyo"}
	if len(cfg.WarmLocations) != len(want) {
		t.Fatalf("WarmLocations = %v, want %v", cfg.WarmLocations, want)
	}
	for i, w := range want {
		if cfg.WarmLocations[i] != w {
			t.Errorf("WarmLocations[%d] = %q, want %q", i, cfg.WarmLocations[i], w)
		}
	}
}

func TestParseTimeoutPair(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantConnect time.Duration
		wantRead    time.Duration
	}{
		{"empty uses defaults", "", 3500 * time.Millisecond, 7 * time.Second},
		{"pair", "3.5,7", 3500 * time.Millisecond, 7 * time.Second},
		{"single value applies to both", "5", 5 * time.Second, 5 * time.Second},
		{"spaces tolerated", " 2 , 6 ", 2 * time.Second, 6 * time.Second},
		{"garbage uses defaults", "fast,slow", 3500 * time.Millisecond, 7 * time.Second},
		{"negative uses defaults", "-1,7", 3500 * time.Millisecond, 7 * time.Second},
		{"too many parts uses defaults", "1,2,3", 3500 * time.Millisecond, 7 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connect, read := parseTimeoutPair(tt.raw)
			if connect != tt.wantConnect || read != tt.wantRead {
				t.Errorf("parseTimeoutPair(%q) = %v,%v, want %v,%v", tt.raw, connect, read, tt.wantConnect, tt.wantRead)
			}
		})
	}
}

func TestRequestTimeoutExceedsReadTimeout(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("HTTP_TIMEOUT", "3,60")
	t.Setenv("REQUEST_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeout <= cfg.ReadTimeout {
		t.Errorf("RequestTimeout = %v, must exceed ReadTimeout %v", cfg.RequestTimeout, cfg.ReadTimeout)
	}
}
