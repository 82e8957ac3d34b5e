package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/inspection"
	"github.com/IshaanNene/auction-ingest/internal/observability"
	"github.com/IshaanNene/auction-ingest/internal/runner"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

var (
	cfgFile  string
	verbose  bool
	source   string
	maxPages int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "auction-ingest",
		Short: "Vehicle auction ingestion",
		Long: `auction-ingest collects vehicle listings from Korean auction sites
(Automart, the court auction portal and the Onbid public API), normalizes
them, and upserts them into the auction backend.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape one source and submit the results",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "source to scrape: automart, court_auction, onbid")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "m", 0, "maximum listing pages (0 = use config)")
	return cmd
}

// runIngest executes the run command.
func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	summary, err := runner.New(cfg, metrics, logger).Run(ctx)
	if summary != nil {
		printSummary(summary, metrics)
	}
	if err != nil {
		if errors.Is(err, types.ErrAllSubmissionsFailed) {
			logger.Error("all submissions failed")
		} else {
			logger.Error("run failed", "error", err)
		}
		return err
	}
	return nil
}

func printSummary(s *runner.Summary, metrics *observability.Metrics) {
	stats := metrics.Snapshot()
	fmt.Printf("\nRun %s (%s) finished in %s\n", s.RunID, s.Source, s.Elapsed.Round(time.Millisecond))
	fmt.Printf("   Scraped:     %d items, %d unique, %d duplicates\n", s.Scraped, s.Unique, s.Duplicates)
	fmt.Printf("   Submitted:   %d ok, %d failed (%d retries)\n", s.Items.Submitted, s.Items.Failed, stats["submissions_retried"])
	if s.Reports > 0 {
		fmt.Printf("   Inspection:  %d ok, %d failed\n", s.Inspection.Submitted, s.Inspection.Failed)
	}
	fmt.Printf("   Pages:       %d fetched, %d failed\n", stats["pages_fetched"], stats["pages_failed"])
	fmt.Printf("   Rows:        %d parsed, %d skipped\n", stats["rows_parsed"], stats["rows_skipped"])
	if stats["items_enriched"] > 0 || stats["enrich_failed"] > 0 {
		fmt.Printf("   Enriched:    %d ok, %d failed\n", stats["items_enriched"], stats["enrich_failed"])
	}
}

// inspectCmd creates the "inspect" subcommand.
func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <report.html>",
		Short: "Parse a saved inspection report page and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			logger := newLogger(verbose, "text", "warn")
			data, err := inspection.NewParser(logger).Parse(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(data)
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("auction-ingest %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Onbid.APIKey != "" {
				cfg.Onbid.APIKey = "<redacted>"
			}
			if cfg.Storage.MongoURI != "" {
				cfg.Storage.MongoURI = "<redacted>"
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

// loadConfig reads config and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if source != "" {
		cfg.Scraper.Source = strings.ToLower(source)
	}
	if maxPages > 0 {
		cfg.Scraper.MaxPages = maxPages
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupLogger creates a structured logger and installs it as the default.
func setupLogger(cfg *config.Config) *slog.Logger {
	logger := newLogger(verbose, cfg.Logging.Format, cfg.Logging.Level)
	slog.SetDefault(logger)
	return logger
}

func newLogger(debug bool, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
