package automart

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/IshaanNene/auction-ingest/internal/browser"
	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/inspection"
	"github.com/IshaanNene/auction-ingest/internal/observability"
	"github.com/IshaanNene/auction-ingest/internal/retry"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

const pageMoveJS = `(pn) => { if (typeof gfnpagemove === 'function') gfnpagemove(pn) }`

// Adapter scrapes Automart through a browser session.
type Adapter struct {
	cfg     config.ScraperConfig
	sess    browser.Session
	parser  *inspection.Parser
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time

	detailLimiter *rate.Limiter
	reportLimiter *rate.Limiter
	reports       []*types.InspectionReport
}

// New creates an Automart adapter.
func New(logger *slog.Logger, metrics *observability.Metrics, parser *inspection.Parser) *Adapter {
	return &Adapter{
		parser:  parser,
		metrics: metrics,
		logger:  logger.With("component", "automart"),
		now:     time.Now,
	}
}

func (a *Adapter) Name() string         { return "Automart Scraper" }
func (a *Adapter) Source() types.Source { return types.SourceAutomart }

// Init loads the active listing.
func (a *Adapter) Init(ctx context.Context, sess browser.Session, cfg *config.Config) error {
	if sess == nil {
		return types.ErrNoSession
	}
	a.sess = sess
	a.cfg = cfg.Scraper
	a.detailLimiter = newLimiter(a.cfg.DetailDelay)
	a.reportLimiter = newLimiter(a.cfg.InspectionDelay)
	a.reports = nil

	a.logger.Info("loading initial page", "url", ActiveURL)
	if err := a.sess.Navigate(ctx, ActiveURL); err != nil {
		return err
	}
	return retry.Sleep(ctx, a.cfg.PageDelay)
}

// newLimiter allows one event per delay; zero disables pacing.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Scrape walks the active listing, then the completed listing when
// configured, then fetches inspection reports.
func (a *Adapter) Scrape(ctx context.Context) ([]*types.AuctionItem, error) {
	a.logger.Info("scraping active auctions")
	items, err := a.scrapeListing(ctx, ActiveURL, false)
	if err != nil {
		return items, err
	}

	if a.cfg.IncludeCompleted {
		a.logger.Info("scraping completed auctions")
		if err := a.sess.Navigate(ctx, CompletedURL); err != nil {
			a.metrics.PagesFailed.Add(1)
			a.logger.Warn("completed listing unavailable", "error", err)
		} else {
			if err := retry.Sleep(ctx, a.cfg.PageDelay); err != nil {
				return items, err
			}
			completed, err := a.scrapeListing(ctx, CompletedURL, true)
			items = append(items, completed...)
			if err != nil {
				return items, err
			}
		}
	}

	if a.cfg.FetchInspectionReports {
		if err := a.scrapeReports(ctx, items); err != nil {
			return items, err
		}
	}
	return items, nil
}

// InspectionReports returns the reports collected by the last Scrape.
func (a *Adapter) InspectionReports() []*types.InspectionReport {
	return a.reports
}

// Cleanup is a no-op; the session belongs to the caller.
func (a *Adapter) Cleanup(ctx context.Context) error {
	a.logger.Debug("cleanup")
	return nil
}

// scrapeListing pages through one listing until the page ceiling or the
// first page without rows. Only context cancellation is returned as an
// error.
func (a *Adapter) scrapeListing(ctx context.Context, listingURL string, completed bool) ([]*types.AuctionItem, error) {
	var all []*types.AuctionItem

	for page := 1; page <= a.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		log := a.logger.With("page", page, "completed", completed)

		if page > 1 {
			if err := a.movePage(ctx, page); err != nil {
				if ctx.Err() != nil {
					return all, ctx.Err()
				}
				a.metrics.PagesFailed.Add(1)
				log.Warn("page change failed, stopping", "error", err)
				break
			}
		}

		items := a.collectPage(ctx, log, completed)
		log.Info("page processed", "vehicles", len(items))

		if a.cfg.FetchDetailPages && len(items) > 0 {
			if err := a.enrich(ctx, items); err != nil {
				return append(all, items...), err
			}
		}
		all = append(all, items...)

		if a.cfg.FetchDetailPages && hasDetailURL(items) {
			if err := a.returnToListing(ctx, listingURL, page); err != nil {
				if ctx.Err() != nil {
					return all, ctx.Err()
				}
				log.Warn("failed to return to listing page", "error", err)
			}
		}

		if len(items) == 0 {
			log.Info("no more vehicles found, stopping")
			break
		}
	}
	return all, nil
}

func (a *Adapter) collectPage(ctx context.Context, log *slog.Logger, completed bool) []*types.AuctionItem {
	page, err := a.sess.HTML(ctx)
	if err != nil {
		a.metrics.PagesFailed.Add(1)
		log.Warn("failed to read listing", "error", err)
		return nil
	}
	a.metrics.PagesFetched.Add(1)

	items, skipped, err := ExtractListing(page, completed, a.now())
	if err != nil {
		log.Warn("failed to parse listing", "error", err)
		return nil
	}
	for _, perr := range skipped {
		log.Debug("row skipped", "error", perr)
	}
	a.metrics.RowsParsed.Add(int64(len(items)))
	a.metrics.RowsSkipped.Add(int64(len(skipped)))

	for _, item := range items {
		log.Debug("vehicle found", "mgmt_number", item.MgmtNumber, "model", item.ModelName, "price", item.Price)
	}
	return items
}

func (a *Adapter) movePage(ctx context.Context, page int) error {
	if _, err := a.sess.Eval(ctx, pageMoveJS, strconv.Itoa(page)); err != nil {
		return err
	}
	return retry.Sleep(ctx, a.cfg.PageDelay)
}

// returnToListing restores the listing and page number that detail visits
// navigated away from.
func (a *Adapter) returnToListing(ctx context.Context, listingURL string, page int) error {
	if err := a.sess.Navigate(ctx, listingURL); err != nil {
		return err
	}
	if err := retry.Sleep(ctx, a.cfg.PageDelay); err != nil {
		return err
	}
	if page > 1 {
		return a.movePage(ctx, page)
	}
	return nil
}

// enrich visits each item's detail page for photos and the report link.
// One item failing does not stop the rest.
func (a *Adapter) enrich(ctx context.Context, items []*types.AuctionItem) error {
	for _, item := range items {
		if item.DetailURL == "" {
			continue
		}
		if err := a.detailLimiter.Wait(ctx); err != nil {
			return err
		}
		if err := a.enrichItem(ctx, item); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.metrics.EnrichFailed.Add(1)
			a.logger.Warn("detail enrichment failed", "mgmt_number", item.Key(), "error", err)
			continue
		}
		a.metrics.ItemsEnriched.Add(1)
	}
	return nil
}

func (a *Adapter) enrichItem(ctx context.Context, item *types.AuctionItem) error {
	if err := a.sess.Navigate(ctx, item.DetailURL); err != nil {
		return err
	}
	page, err := a.sess.HTML(ctx)
	if err != nil {
		return err
	}
	detail, err := ParseDetailPage(page)
	if err != nil {
		return err
	}
	if detail.InspectionURL != "" {
		item.InspectionReportURL = detail.InspectionURL
	}

	var gallery []string
	if detail.GalleryParams != "" {
		gallery, err = a.fetchGallery(ctx, detail.GalleryParams)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Debug("gallery unavailable, using fallback photos", "mgmt_number", item.Key(), "error", err)
		}
	}
	item.ImageURLs = ResolveImages(gallery, detail.FallbackImages)

	a.logger.Debug("detail enriched",
		"mgmt_number", item.Key(),
		"images", len(item.ImageURLs),
		"inspection", item.InspectionReportURL != "",
	)
	return nil
}

func (a *Adapter) fetchGallery(ctx context.Context, params string) ([]string, error) {
	if err := a.sess.Navigate(ctx, GalleryURL(params)); err != nil {
		return nil, err
	}
	page, err := a.sess.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return ParseGallery(page)
}

func (a *Adapter) scrapeReports(ctx context.Context, items []*types.AuctionItem) error {
	var pending []*types.AuctionItem
	for _, item := range items {
		if item.InspectionReportURL != "" {
			pending = append(pending, item)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	a.logger.Info("fetching inspection reports", "count", len(pending))

	for _, item := range pending {
		if err := a.reportLimiter.Wait(ctx); err != nil {
			return err
		}
		report, err := a.fetchReport(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.metrics.ReportsFailed.Add(1)
			a.logger.Warn("inspection report failed", "mgmt_number", item.Key(), "error", err)
			continue
		}
		a.metrics.ReportsParsed.Add(1)
		a.reports = append(a.reports, report)
		a.logger.Debug("inspection report parsed", "mgmt_number", item.Key(), "sections", report.Data.SectionCount())
	}

	a.logger.Info("inspection reports fetched", "parsed", len(a.reports), "requested", len(pending))
	return nil
}

func (a *Adapter) fetchReport(ctx context.Context, item *types.AuctionItem) (*types.InspectionReport, error) {
	if err := a.sess.Navigate(ctx, item.InspectionReportURL); err != nil {
		return nil, err
	}
	page, err := a.sess.HTML(ctx)
	if err != nil {
		return nil, err
	}
	data, err := a.parser.ParseString(page)
	if err != nil {
		return nil, err
	}
	return &types.InspectionReport{
		VehicleSourceID: item.SourceID,
		MgmtNumber:      item.Key(),
		ReportURL:       item.InspectionReportURL,
		Data:            data,
		ScrapedAt:       a.now(),
	}, nil
}

func hasDetailURL(items []*types.AuctionItem) bool {
	for _, item := range items {
		if item.DetailURL != "" {
			return true
		}
	}
	return false
}
