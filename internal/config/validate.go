package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

var knownSources = map[string]bool{
	"automart": true, "court_auction": true, "onbid": true,
}

// Validate checks the configuration for invalid values. A missing Onbid
// API key is deliberately not an error: that source is skipped instead.
func Validate(cfg *Config) error {
	source := strings.ToLower(strings.TrimSpace(cfg.Scraper.Source))
	if !knownSources[source] {
		return fmt.Errorf("%w: scraper.source must be automart, court_auction or onbid, got %q", types.ErrUnknownSource, cfg.Scraper.Source)
	}
	if cfg.Scraper.MaxPages < 1 {
		return fmt.Errorf("scraper.max_pages must be >= 1, got %d", cfg.Scraper.MaxPages)
	}
	if cfg.Scraper.DetailDelay < 0 || cfg.Scraper.InspectionDelay < 0 || cfg.Scraper.PageDelay < 0 {
		return fmt.Errorf("scraper delays must be >= 0")
	}
	if cfg.Scraper.NavigationTimeout <= 0 {
		return fmt.Errorf("scraper.navigation_timeout must be > 0")
	}
	if cfg.Scraper.CaptureTimeout <= 0 {
		return fmt.Errorf("scraper.capture_timeout must be > 0")
	}

	if cfg.Onbid.ItemsPerPage < 1 {
		return fmt.Errorf("onbid.items_per_page must be >= 1, got %d", cfg.Onbid.ItemsPerPage)
	}
	if cfg.Onbid.MaxAttempts < 1 {
		return fmt.Errorf("onbid.max_attempts must be >= 1, got %d", cfg.Onbid.MaxAttempts)
	}
	if cfg.Onbid.RetryBaseDelay < 0 {
		return fmt.Errorf("onbid.retry_base_delay must be >= 0")
	}

	if err := ValidateURL(cfg.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if cfg.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be >= 1, got %d", cfg.API.MaxAttempts)
	}
	if cfg.API.RetryBaseDelay < 0 {
		return fmt.Errorf("api.retry_base_delay must be >= 0")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
