package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks the counters of one ingestion run.
type Metrics struct {
	// Scrape metrics
	PagesFetched atomic.Int64
	PagesFailed  atomic.Int64
	RowsParsed   atomic.Int64
	RowsSkipped  atomic.Int64

	// Enrichment metrics
	ItemsEnriched   atomic.Int64
	EnrichFailed    atomic.Int64
	ReportsParsed   atomic.Int64
	ReportsFailed   atomic.Int64
	DuplicatesFound atomic.Int64

	// Submission metrics
	SubmissionsOK      atomic.Int64
	SubmissionsFailed  atomic.Int64
	SubmissionsRetried atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metricLine struct {
	name  string
	help  string
	value int64
}

func (m *Metrics) lines() []metricLine {
	return []metricLine{
		{"auction_ingest_pages_fetched_total", "Listing pages or API pages fetched", m.PagesFetched.Load()},
		{"auction_ingest_pages_failed_total", "Pages that failed to load", m.PagesFailed.Load()},
		{"auction_ingest_rows_parsed_total", "Rows turned into items", m.RowsParsed.Load()},
		{"auction_ingest_rows_skipped_total", "Rows skipped as parse misses", m.RowsSkipped.Load()},
		{"auction_ingest_items_enriched_total", "Items enriched from detail pages", m.ItemsEnriched.Load()},
		{"auction_ingest_enrich_failed_total", "Detail page visits that failed", m.EnrichFailed.Load()},
		{"auction_ingest_reports_parsed_total", "Inspection reports parsed", m.ReportsParsed.Load()},
		{"auction_ingest_reports_failed_total", "Inspection reports that failed", m.ReportsFailed.Load()},
		{"auction_ingest_duplicates_total", "Items collapsed by deduplication", m.DuplicatesFound.Load()},
		{"auction_ingest_submissions_ok_total", "Successful upserts", m.SubmissionsOK.Load()},
		{"auction_ingest_submissions_failed_total", "Upserts that failed after all attempts", m.SubmissionsFailed.Load()},
		{"auction_ingest_submissions_retried_total", "Upsert retries", m.SubmissionsRetried.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	for _, metric := range m.lines() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer serves metrics in the background until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_fetched":       m.PagesFetched.Load(),
		"pages_failed":        m.PagesFailed.Load(),
		"rows_parsed":         m.RowsParsed.Load(),
		"rows_skipped":        m.RowsSkipped.Load(),
		"items_enriched":      m.ItemsEnriched.Load(),
		"enrich_failed":       m.EnrichFailed.Load(),
		"reports_parsed":      m.ReportsParsed.Load(),
		"reports_failed":      m.ReportsFailed.Load(),
		"duplicates":          m.DuplicatesFound.Load(),
		"submissions_ok":      m.SubmissionsOK.Load(),
		"submissions_failed":  m.SubmissionsFailed.Load(),
		"submissions_retried": m.SubmissionsRetried.Load(),
	}
}
