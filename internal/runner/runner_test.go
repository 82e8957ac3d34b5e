package runner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/auction-ingest/internal/adapter"
	"github.com/IshaanNene/auction-ingest/internal/browser"
	"github.com/IshaanNene/auction-ingest/internal/browser/browsertest"
	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/observability"
	"github.com/IshaanNene/auction-ingest/internal/storage"
	"github.com/IshaanNene/auction-ingest/internal/submit"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAdapter struct {
	src       types.Source
	items     []*types.AuctionItem
	reports   []*types.InspectionReport
	initErr   error
	scrapeErr error
	gotSess   browser.Session
	cleanups  int
}

func (a *fakeAdapter) Name() string         { return "fake" }
func (a *fakeAdapter) Source() types.Source { return a.src }
func (a *fakeAdapter) Init(_ context.Context, sess browser.Session, _ *config.Config) error {
	a.gotSess = sess
	return a.initErr
}
func (a *fakeAdapter) Scrape(context.Context) ([]*types.AuctionItem, error) {
	return a.items, a.scrapeErr
}
func (a *fakeAdapter) InspectionReports() []*types.InspectionReport { return a.reports }
func (a *fakeAdapter) Cleanup(context.Context) error {
	a.cleanups++
	return nil
}

type fakeSubmitter struct {
	fail    bool
	items   []string
	reports int
}

func (s *fakeSubmitter) SubmitItems(_ context.Context, items []*types.AuctionItem) submit.Result {
	if s.fail {
		return submit.Result{Failed: len(items)}
	}
	for _, it := range items {
		s.items = append(s.items, it.SourceID)
	}
	return submit.Result{Submitted: len(items)}
}

func (s *fakeSubmitter) SubmitReports(_ context.Context, reports []*types.InspectionReport) submit.Result {
	s.reports += len(reports)
	return submit.Result{Submitted: len(reports)}
}

type harness struct {
	runner    *Runner
	adapter   *fakeAdapter
	submitter *fakeSubmitter
	session   *browsertest.Session
	launches  int
	outDir    string
}

func newHarness(t *testing.T, src types.Source, needsBrowser bool) *harness {
	t.Helper()
	h := &harness{
		adapter:   &fakeAdapter{src: src},
		submitter: &fakeSubmitter{},
		session:   &browsertest.Session{},
		outDir:    t.TempDir(),
	}

	reg := adapter.NewRegistry()
	if err := reg.Register(adapter.Entry{
		Source:       src,
		NeedsBrowser: needsBrowser,
		New:          func(*slog.Logger, adapter.Deps) adapter.Adapter { return h.adapter },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Scraper.Source = string(src)
	cfg.Storage.OutputDir = h.outDir

	metrics := observability.NewMetrics(testLogger)
	h.runner = New(cfg, metrics, testLogger)
	h.runner.registry = reg
	h.runner.submitter = h.submitter
	h.runner.launch = func(*config.Config, *slog.Logger) (browser.Session, error) {
		h.launches++
		return h.session, nil
	}
	return h
}

func item(id string) *types.AuctionItem {
	it := types.NewAuctionItem(types.SourceAutomart, id)
	it.Price = types.Int64(1000)
	return it
}

func TestRunBrowserSource(t *testing.T) {
	h := newHarness(t, types.SourceAutomart, true)
	h.adapter.items = []*types.AuctionItem{item("a"), item("b"), item("a")}
	h.adapter.reports = []*types.InspectionReport{{VehicleSourceID: "a", MgmtNumber: "a"}}

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if h.launches != 1 || h.adapter.gotSess != h.session {
		t.Errorf("launches = %d, session passed = %v", h.launches, h.adapter.gotSess != nil)
	}
	if !h.session.Closed() || h.adapter.cleanups != 1 {
		t.Errorf("closed = %v cleanups = %d", h.session.Closed(), h.adapter.cleanups)
	}
	if diff := cmp.Diff([]string{"a", "b"}, h.submitter.items); diff != "" {
		t.Errorf("submitted mismatch (-want +got):\n%s", diff)
	}
	if h.submitter.reports != 1 {
		t.Errorf("reports submitted = %d", h.submitter.reports)
	}
	if summary.Scraped != 3 || summary.Unique != 2 || summary.Duplicates != 1 {
		t.Errorf("summary = %+v", summary)
	}

	for _, name := range []string{"vehicles-automart.json", "inspections-automart.json"} {
		if _, err := os.Stat(filepath.Join(h.outDir, name)); err != nil {
			t.Errorf("backup %s missing: %v", name, err)
		}
	}
}

func TestRunScrapeFailureKeepsCapturedItems(t *testing.T) {
	h := newHarness(t, types.SourceAutomart, true)
	h.adapter.items = []*types.AuctionItem{item("a"), item("b")}
	h.adapter.scrapeErr = errors.New("page crashed")

	summary, err := h.runner.Run(context.Background())
	if err == nil || summary == nil {
		t.Fatalf("expected failed run with a summary, got %v / %v", summary, err)
	}
	if summary.Scraped != 2 || len(h.submitter.items) != 0 {
		t.Errorf("scraped = %d, submitted = %v", summary.Scraped, h.submitter.items)
	}

	var backed []map[string]any
	raw, err := os.ReadFile(filepath.Join(h.outDir, "vehicles-automart.json"))
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if err := json.Unmarshal(raw, &backed); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if len(backed) != 2 {
		t.Errorf("backup holds %d items, want 2", len(backed))
	}
}

func TestRunScrapeFailureWithNothingCaptured(t *testing.T) {
	h := newHarness(t, types.SourceAutomart, true)
	h.adapter.scrapeErr = errors.New("listing unreachable")

	summary, err := h.runner.Run(context.Background())
	if err == nil || summary != nil {
		t.Fatalf("expected bare error, got %v / %v", summary, err)
	}
	if _, err := os.Stat(filepath.Join(h.outDir, "vehicles-automart.json")); !os.IsNotExist(err) {
		t.Errorf("no backup expected, stat = %v", err)
	}
}

func TestRunSkipsBrowserForAPISource(t *testing.T) {
	h := newHarness(t, types.SourceOnbid, false)
	h.adapter.items = []*types.AuctionItem{item("onbid:1-1-1")}

	if _, err := h.runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.launches != 0 || h.adapter.gotSess != nil {
		t.Errorf("browser should not be launched, launches = %d", h.launches)
	}
}

func TestRunAllSubmissionsFailed(t *testing.T) {
	h := newHarness(t, types.SourceAutomart, true)
	h.adapter.items = []*types.AuctionItem{item("a")}
	h.adapter.reports = []*types.InspectionReport{{VehicleSourceID: "a"}}
	h.submitter.fail = true

	summary, err := h.runner.Run(context.Background())
	if !errors.Is(err, types.ErrAllSubmissionsFailed) {
		t.Fatalf("expected ErrAllSubmissionsFailed, got %v", err)
	}
	if summary.Items.Failed != 1 || h.submitter.reports != 0 {
		t.Errorf("failed = %d, reports submitted = %d", summary.Items.Failed, h.submitter.reports)
	}
	if _, err := os.Stat(filepath.Join(h.outDir, "vehicles-automart.json")); err != nil {
		t.Errorf("backup must be written before submission: %v", err)
	}
}

func TestRunNoItemsIsNotFailure(t *testing.T) {
	h := newHarness(t, types.SourceCourtAuction, true)
	h.submitter.fail = true

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Unique != 0 {
		t.Errorf("unique = %d", summary.Unique)
	}
}

func TestRunUnknownSource(t *testing.T) {
	h := newHarness(t, types.SourceAutomart, true)
	h.runner.cfg.Scraper.Source = "encar"

	if _, err := h.runner.Run(context.Background()); !errors.Is(err, types.ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestRunInitFailureClosesSession(t *testing.T) {
	h := newHarness(t, types.SourceAutomart, true)
	h.adapter.initErr = types.ErrNoSession

	if _, err := h.runner.Run(context.Background()); !errors.Is(err, types.ErrNoSession) {
		t.Fatalf("expected init error, got %v", err)
	}
	if !h.session.Closed() {
		t.Error("session should be closed after init failure")
	}
}

type failingSink struct{ closed bool }

func (s *failingSink) Name() string { return "broken" }
func (s *failingSink) Store(context.Context, *storage.Run) error {
	return &types.StorageError{Backend: "broken", Err: errors.New("down")}
}
func (s *failingSink) Close() error {
	s.closed = true
	return nil
}

func TestRunArchiveFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, types.SourceAutomart, true)
	h.adapter.items = []*types.AuctionItem{item("a")}
	sink := &failingSink{}
	h.runner.openArchive = func(context.Context) (storage.Sink, error) { return sink, nil }

	if _, err := h.runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sink.closed {
		t.Error("archive should be closed")
	}
	if len(h.submitter.items) != 1 {
		t.Errorf("submitted = %v", h.submitter.items)
	}
}

func TestRunArchiveUnavailable(t *testing.T) {
	h := newHarness(t, types.SourceAutomart, true)
	h.adapter.items = []*types.AuctionItem{item("a")}
	h.runner.openArchive = func(context.Context) (storage.Sink, error) {
		return nil, &types.StorageError{Backend: "mongodb", Err: errors.New("no route")}
	}
	h.runner.now = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Items.Submitted != 1 {
		t.Errorf("submitted = %d", summary.Items.Submitted)
	}
}
