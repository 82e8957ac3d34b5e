package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// legacyEnv binds the environment names the deployed scraper has always
// read onto their config keys.
var legacyEnv = map[string]string{
	"scraper.source":                   "SCRAPER_SOURCE",
	"scraper.max_pages":                "SCRAPE_MAX_PAGES",
	"scraper.include_completed":        "SCRAPE_INCLUDE_COMPLETED",
	"scraper.fetch_detail_pages":       "SCRAPE_DETAIL_PAGES",
	"scraper.detail_delay":             "SCRAPE_DETAIL_DELAY",
	"scraper.fetch_inspection_reports": "SCRAPE_INSPECTION_REPORTS",
	"scraper.inspection_delay":         "SCRAPE_INSPECTION_DELAY",
	"scraper.page_delay":               "SCRAPE_PAGE_DELAY",
	"scraper.capture_timeout":          "SCRAPE_CAPTURE_TIMEOUT",
	"onbid.api_key":                    "ONBID_API_KEY",
	"api.base_url":                     "API_URL",
}

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller after Load.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("AUCTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "AUCTION_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("auction-ingest")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".auction-ingest"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		millisecondsHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// millisecondsHook lets durations be written as bare millisecond counts,
// which is how the SCRAPE_*_DELAY variables have always been expressed.
func millisecondsHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch from.Kind() {
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
				return time.Duration(ms) * time.Millisecond, nil
			}
		case reflect.Int, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Millisecond, nil
		}
		return data, nil
	}
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scraper.source", cfg.Scraper.Source)
	v.SetDefault("scraper.max_pages", cfg.Scraper.MaxPages)
	v.SetDefault("scraper.include_completed", cfg.Scraper.IncludeCompleted)
	v.SetDefault("scraper.fetch_detail_pages", cfg.Scraper.FetchDetailPages)
	v.SetDefault("scraper.detail_delay", cfg.Scraper.DetailDelay.String())
	v.SetDefault("scraper.fetch_inspection_reports", cfg.Scraper.FetchInspectionReports)
	v.SetDefault("scraper.inspection_delay", cfg.Scraper.InspectionDelay.String())
	v.SetDefault("scraper.page_delay", cfg.Scraper.PageDelay.String())
	v.SetDefault("scraper.navigation_timeout", cfg.Scraper.NavigationTimeout.String())
	v.SetDefault("scraper.capture_timeout", cfg.Scraper.CaptureTimeout.String())

	v.SetDefault("onbid.api_key", cfg.Onbid.APIKey)
	v.SetDefault("onbid.endpoint", cfg.Onbid.Endpoint)
	v.SetDefault("onbid.items_per_page", cfg.Onbid.ItemsPerPage)
	v.SetDefault("onbid.timeout", cfg.Onbid.Timeout.String())
	v.SetDefault("onbid.max_attempts", cfg.Onbid.MaxAttempts)
	v.SetDefault("onbid.retry_base_delay", cfg.Onbid.RetryBaseDelay.String())

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout.String())
	v.SetDefault("api.max_attempts", cfg.API.MaxAttempts)
	v.SetDefault("api.retry_base_delay", cfg.API.RetryBaseDelay.String())

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.bin_path", cfg.Browser.BinPath)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.locale", cfg.Browser.Locale)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)

	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
