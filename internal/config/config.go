package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for one ingestion run.
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Onbid   OnbidConfig   `mapstructure:"onbid"   yaml:"onbid"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ScraperConfig selects the adapter and bounds its traversal.
type ScraperConfig struct {
	Source                 string        `mapstructure:"source"                   yaml:"source"`
	MaxPages               int           `mapstructure:"max_pages"                yaml:"max_pages"`
	IncludeCompleted       bool          `mapstructure:"include_completed"        yaml:"include_completed"`
	FetchDetailPages       bool          `mapstructure:"fetch_detail_pages"       yaml:"fetch_detail_pages"`
	DetailDelay            time.Duration `mapstructure:"detail_delay"             yaml:"detail_delay"`
	FetchInspectionReports bool          `mapstructure:"fetch_inspection_reports" yaml:"fetch_inspection_reports"`
	InspectionDelay        time.Duration `mapstructure:"inspection_delay"         yaml:"inspection_delay"`
	PageDelay              time.Duration `mapstructure:"page_delay"               yaml:"page_delay"`
	NavigationTimeout      time.Duration `mapstructure:"navigation_timeout"       yaml:"navigation_timeout"`
	CaptureTimeout         time.Duration `mapstructure:"capture_timeout"          yaml:"capture_timeout"`
}

// OnbidConfig controls the public XML data API.
type OnbidConfig struct {
	APIKey         string        `mapstructure:"api_key"          yaml:"api_key"`
	Endpoint       string        `mapstructure:"endpoint"         yaml:"endpoint"`
	ItemsPerPage   int           `mapstructure:"items_per_page"   yaml:"items_per_page"`
	Timeout        time.Duration `mapstructure:"timeout"          yaml:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"     yaml:"max_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
}

// APIConfig points at the backend that receives submissions.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"         yaml:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"          yaml:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"     yaml:"max_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
}

// BrowserConfig controls the headless browser session.
type BrowserConfig struct {
	Headless  bool   `mapstructure:"headless"   yaml:"headless"`
	BinPath   string `mapstructure:"bin_path"   yaml:"bin_path"`
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	Locale    string `mapstructure:"locale"     yaml:"locale"`
	Stealth   bool   `mapstructure:"stealth"    yaml:"stealth"`
}

// StorageConfig controls the local backup files and the optional archive.
type StorageConfig struct {
	OutputDir       string `mapstructure:"output_dir"       yaml:"output_dir"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config matching the deployed scraper's defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Source:                 "automart",
			MaxPages:               20,
			IncludeCompleted:       true,
			FetchDetailPages:       true,
			DetailDelay:            1500 * time.Millisecond,
			FetchInspectionReports: false,
			InspectionDelay:        2000 * time.Millisecond,
			PageDelay:              2000 * time.Millisecond,
			NavigationTimeout:      30 * time.Second,
			CaptureTimeout:         15 * time.Second,
		},
		Onbid: OnbidConfig{
			Endpoint:       "https://apis.data.go.kr/B010003/OnbidCarListInfoSvc/getCarList",
			ItemsPerPage:   20,
			Timeout:        30 * time.Second,
			MaxAttempts:    3,
			RetryBaseDelay: time.Second,
		},
		API: APIConfig{
			BaseURL:        "http://auto-auction-api:8080",
			Timeout:        30 * time.Second,
			MaxAttempts:    3,
			RetryBaseDelay: time.Second,
		},
		Browser: BrowserConfig{
			Headless:  true,
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Locale:    "ko-KR",
			Stealth:   true,
		},
		Storage: StorageConfig{
			OutputDir:       ".",
			MongoDatabase:   "auto_auction",
			MongoCollection: "scrape_runs",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
