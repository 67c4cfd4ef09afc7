package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DEFAULT_CURRENCY", "")
		t.Setenv("QUOTE_REQUESTS_PER_SECOND", "")
		t.Setenv("PROVIDER_TIMEOUT", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DefaultCurrency != "HUF" {
			t.Errorf("expected default currency HUF, got %s", cfg.DefaultCurrency)
		}
		if cfg.QuoteRequestsPerSecond != 2 {
			t.Errorf("expected 2 quote requests per second, got %v", cfg.QuoteRequestsPerSecond)
		}
		if cfg.ProviderTimeout != 10*time.Second {
			t.Errorf("expected 10s provider timeout, got %s", cfg.ProviderTimeout)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DEFAULT_CURRENCY", "eur")
		t.Setenv("RATES_CACHE_TTL", "15m")
		t.Setenv("QUOTE_REQUESTS_PER_SECOND", "0.5")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DefaultCurrency != "EUR" {
			t.Errorf("expected EUR, got %s", cfg.DefaultCurrency)
		}
		if cfg.RatesCacheTTL != 15*time.Minute {
			t.Errorf("expected 15m cache ttl, got %s", cfg.RatesCacheTTL)
		}
		if cfg.QuoteRequestsPerSecond != 0.5 {
			t.Errorf("expected 0.5, got %v", cfg.QuoteRequestsPerSecond)
		}
	})

	t.Run("invalid_values_fall_back", func(t *testing.T) {
		t.Setenv("PROVIDER_TIMEOUT", "soon")
		t.Setenv("QUOTE_REQUESTS_PER_SECOND", "-1")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ProviderTimeout != 10*time.Second {
			t.Errorf("expected fallback 10s, got %s", cfg.ProviderTimeout)
		}
		if cfg.QuoteRequestsPerSecond != 2 {
			t.Errorf("expected fallback 2, got %v", cfg.QuoteRequestsPerSecond)
		}
	})
}
