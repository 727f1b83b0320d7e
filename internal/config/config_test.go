package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"MOXI_PLATFORM_URL", "MOXI_DEBUG", "MOXI_TIMEOUT_MS", "SEARCH_CACHE_TTL_SECONDS", "API_PORT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.PlatformURL != "https://api.moxiworks.com" {
		t.Errorf("PlatformURL = %q", cfg.PlatformURL)
	}
	if cfg.PlatformDebug {
		t.Error("PlatformDebug should default to false")
	}
	if cfg.PlatformTimeout != 15*time.Second {
		t.Errorf("PlatformTimeout = %v", cfg.PlatformTimeout)
	}
	if cfg.SearchCacheTTL != time.Minute {
		t.Errorf("SearchCacheTTL = %v", cfg.SearchCacheTTL)
	}
	if cfg.APIPort != "3000" {
		t.Errorf("APIPort = %q", cfg.APIPort)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MOXI_PLATFORM_URL", "https://sandbox.moxiworks.com")
	t.Setenv("MOXI_DEBUG", "true")
	t.Setenv("MOXI_TIMEOUT_MS", "2500")
	t.Setenv("SEARCH_CACHE_TTL_SECONDS", "0")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	if cfg.PlatformURL != "https://sandbox.moxiworks.com" {
		t.Errorf("PlatformURL = %q", cfg.PlatformURL)
	}
	if !cfg.PlatformDebug {
		t.Error("PlatformDebug should be true")
	}
	if cfg.PlatformTimeout != 2500*time.Millisecond {
		t.Errorf("PlatformTimeout = %v", cfg.PlatformTimeout)
	}
	if cfg.SearchCacheTTL != 0 {
		t.Errorf("SearchCacheTTL = %v", cfg.SearchCacheTTL)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("RateLimitPerMinute = %d, want fallback 120", cfg.RateLimitPerMinute)
	}
}
