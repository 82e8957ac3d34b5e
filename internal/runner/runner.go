// Package runner drives one ingestion run from adapter to backend.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/auction-ingest/internal/adapter"
	"github.com/IshaanNene/auction-ingest/internal/browser"
	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/inspection"
	"github.com/IshaanNene/auction-ingest/internal/observability"
	"github.com/IshaanNene/auction-ingest/internal/pipeline"
	"github.com/IshaanNene/auction-ingest/internal/storage"
	"github.com/IshaanNene/auction-ingest/internal/submit"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

// Submitter sends records to the backend.
type Submitter interface {
	SubmitItems(ctx context.Context, items []*types.AuctionItem) submit.Result
	SubmitReports(ctx context.Context, reports []*types.InspectionReport) submit.Result
}

// LaunchFunc opens a browser session.
type LaunchFunc func(cfg *config.Config, logger *slog.Logger) (browser.Session, error)

// Summary describes a finished run.
type Summary struct {
	RunID      string        `json:"run_id"`
	Source     types.Source  `json:"source"`
	Scraped    int           `json:"scraped"`
	Unique     int           `json:"unique"`
	Duplicates int           `json:"duplicates"`
	Reports    int           `json:"reports"`
	Items      submit.Result `json:"items"`
	Inspection submit.Result `json:"inspection"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Runner wires an adapter to the pipeline, storage and submission.
type Runner struct {
	cfg       *config.Config
	registry  *adapter.Registry
	launch    LaunchFunc
	submitter Submitter
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time

	// openArchive connects the optional archive; nil when none is
	// configured.
	openArchive func(ctx context.Context) (storage.Sink, error)
}

// New creates a runner using the built-in adapters, a rod browser and
// the resty submission client.
func New(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Runner {
	r := &Runner{
		cfg:       cfg,
		registry:  adapter.Default(),
		launch:    launchRod,
		submitter: submit.NewClient(cfg.API, metrics, logger),
		metrics:   metrics,
		logger:    logger.With("component", "runner"),
		now:       time.Now,
	}
	if cfg.Storage.MongoURI != "" {
		r.openArchive = func(ctx context.Context) (storage.Sink, error) {
			return storage.NewMongoArchive(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, logger)
		}
	}
	return r
}

func launchRod(cfg *config.Config, logger *slog.Logger) (browser.Session, error) {
	s, err := browser.Launch(cfg, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Run executes one ingestion run. It fails when the configuration or
// adapter is unusable, the scrape aborts, the backup cannot be written,
// or every item submission fails.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := r.now()
	if err := config.Validate(r.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	entry, err := r.registry.Lookup(r.cfg.Scraper.Source)
	if err != nil {
		return nil, err
	}
	a := entry.New(r.logger, adapter.Deps{
		Metrics:    r.metrics,
		Inspection: inspection.NewParser(r.logger),
	})

	summary := &Summary{RunID: uuid.NewString(), Source: entry.Source}
	r.logger.Info("starting run",
		"run_id", summary.RunID,
		"adapter", a.Name(),
		"max_pages", r.cfg.Scraper.MaxPages,
		"include_completed", r.cfg.Scraper.IncludeCompleted,
		"inspection_reports", r.cfg.Scraper.FetchInspectionReports,
		"api", r.cfg.API.BaseURL,
	)

	items, reports, scrapeErr := r.scrape(ctx, entry, a)
	if scrapeErr != nil && len(items) == 0 && len(reports) == 0 {
		return nil, scrapeErr
	}
	if scrapeErr != nil {
		r.logger.Error("scrape failed, keeping captured items",
			"items", len(items), "reports", len(reports), "error", scrapeErr)
	}
	summary.Scraped = len(items)

	p := pipeline.Default(r.logger)
	r.logger.Debug("processing items", "count", len(items), "stages", p.Len())
	items = p.Run(items)
	unique, dups := pipeline.Deduplicate(items)
	r.metrics.DuplicatesFound.Add(int64(dups))
	summary.Unique = len(unique)
	summary.Duplicates = dups
	summary.Reports = len(reports)

	run := &storage.Run{
		ID:         summary.RunID,
		Source:     entry.Source,
		StartedAt:  start,
		FinishedAt: r.now(),
		Items:      unique,
		Reports:    reports,
	}
	if err := r.store(ctx, run); err != nil {
		return nil, err
	}
	if scrapeErr != nil {
		summary.Elapsed = r.now().Sub(start)
		return summary, scrapeErr
	}

	r.logger.Info("submitting items", "count", len(unique))
	summary.Items = r.submitter.SubmitItems(ctx, unique)
	r.logger.Info("items submitted", "submitted", summary.Items.Submitted, "failed", summary.Items.Failed)
	if len(unique) > 0 && summary.Items.Submitted == 0 {
		summary.Elapsed = r.now().Sub(start)
		return summary, types.ErrAllSubmissionsFailed
	}

	if len(reports) > 0 {
		r.logger.Info("submitting inspection reports", "count", len(reports))
		summary.Inspection = r.submitter.SubmitReports(ctx, reports)
		r.logger.Info("inspection reports submitted",
			"submitted", summary.Inspection.Submitted,
			"failed", summary.Inspection.Failed,
		)
	}

	summary.Elapsed = r.now().Sub(start)
	r.logger.Info("run complete",
		"run_id", summary.RunID,
		"scraped", summary.Scraped,
		"unique", summary.Unique,
		"submitted", summary.Items.Submitted,
		"failed", summary.Items.Failed,
		"elapsed", summary.Elapsed,
	)
	return summary, ctx.Err()
}

// scrape runs the adapter lifecycle. Cleanup and session close always
// happen, and their failures are only logged. When Scrape fails the items
// and reports captured so far are returned with the error.
func (r *Runner) scrape(ctx context.Context, entry adapter.Entry, a adapter.Adapter) ([]*types.AuctionItem, []*types.InspectionReport, error) {
	var sess browser.Session
	if entry.NeedsBrowser {
		s, err := r.launch(r.cfg, r.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("launch browser: %w", err)
		}
		sess = s
		defer func() {
			if err := sess.Close(); err != nil {
				r.logger.Warn("browser close failed", "error", err)
			}
		}()
	}

	if err := a.Init(ctx, sess, r.cfg); err != nil {
		return nil, nil, fmt.Errorf("init %s: %w", a.Name(), err)
	}
	defer func() {
		if err := a.Cleanup(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("adapter cleanup failed", "error", err)
		}
	}()

	items, err := a.Scrape(ctx)
	if err != nil {
		return items, a.InspectionReports(), fmt.Errorf("scrape %s: %w", a.Name(), err)
	}
	return items, a.InspectionReports(), nil
}

// store writes the local backup and, when configured, the archive. An
// unreachable or failing archive is logged and skipped.
func (r *Runner) store(ctx context.Context, run *storage.Run) error {
	backup, err := storage.NewBackupWriter(r.cfg.Storage.OutputDir, r.logger)
	if err != nil {
		return err
	}
	if err := backup.Store(ctx, run); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	if r.openArchive == nil {
		return nil
	}
	archive, err := r.openArchive(ctx)
	if err != nil {
		r.logger.Warn("archive unavailable, skipping", "error", err)
		return nil
	}
	defer func() {
		if err := archive.Close(); err != nil {
			r.logger.Warn("archive close failed", "backend", archive.Name(), "error", err)
		}
	}()
	if err := archive.Store(ctx, run); err != nil {
		r.logger.Warn("archive failed", "backend", archive.Name(), "error", err)
	}
	return nil
}
