package onbid

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/IshaanNene/auction-ingest/internal/browser"
	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/fetcher"
	"github.com/IshaanNene/auction-ingest/internal/observability"
	"github.com/IshaanNene/auction-ingest/internal/retry"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

// disposal method code for sales
const disposalSale = "0001"

// Adapter pages through the Onbid car list API. It does not use a
// browser session.
type Adapter struct {
	cfg      *config.Config
	client   *fetcher.HTTPFetcher
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
	maxEmpty int
}

// New creates an Onbid adapter.
func New(logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	return &Adapter{
		metrics:  metrics,
		logger:   logger.With("component", "onbid"),
		now:      time.Now,
		maxEmpty: 2,
	}
}

func (a *Adapter) Name() string         { return "온비드" }
func (a *Adapter) Source() types.Source { return types.SourceOnbid }

// Init ignores sess.
func (a *Adapter) Init(ctx context.Context, _ browser.Session, cfg *config.Config) error {
	a.cfg = cfg
	a.client = fetcher.NewHTTPFetcher(cfg, cfg.Onbid.Timeout, a.logger)
	return nil
}

// InspectionReports always returns nil; the API carries no reports.
func (a *Adapter) InspectionReports() []*types.InspectionReport { return nil }

func (a *Adapter) Cleanup(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// Scrape walks the API until the reported total is reached, a page comes
// back empty, or two pages in a row hold no vehicles.
func (a *Adapter) Scrape(ctx context.Context) ([]*types.AuctionItem, error) {
	if a.cfg.Onbid.APIKey == "" {
		a.logger.Warn("onbid api key not set, skipping", "error", types.ErrMissingAPIKey)
		return nil, nil
	}

	perPage := a.cfg.Onbid.ItemsPerPage
	if perPage <= 0 {
		perPage = 20
	}

	var (
		items   []*types.AuctionItem
		fetched int
		empty   int
	)
	for pageNo := 1; pageNo <= a.cfg.Scraper.MaxPages; pageNo++ {
		if pageNo > 1 {
			if err := retry.Sleep(ctx, a.cfg.Scraper.PageDelay); err != nil {
				return items, err
			}
		}

		page, err := a.fetchPage(ctx, pageNo, perPage)
		if err != nil {
			if ctx.Err() != nil {
				return items, ctx.Err()
			}
			a.metrics.PagesFailed.Add(1)
			a.logger.Warn("page fetch failed, stopping", "page", pageNo, "error", err)
			break
		}

		for _, perr := range page.Skipped {
			a.logger.Debug("item skipped", "page", pageNo, "error", perr)
		}
		a.metrics.RowsParsed.Add(int64(len(page.Items)))
		a.metrics.RowsSkipped.Add(int64(len(page.Skipped)))
		a.logger.Info("page processed",
			"page", pageNo,
			"raw", page.RawCount,
			"vehicles", len(page.Items),
			"total", page.TotalCount,
		)

		if page.RawCount == 0 {
			a.logger.Info("empty page, stopping", "page", pageNo)
			break
		}
		items = append(items, page.Items...)
		fetched += page.RawCount

		if len(page.Items) == 0 {
			empty++
			if empty >= a.maxEmpty {
				a.logger.Info("no vehicles on consecutive pages, stopping", "page", pageNo)
				break
			}
		} else {
			empty = 0
		}
		if fetched >= page.TotalCount {
			break
		}
	}

	a.logger.Info("onbid scrape complete", "items", len(items), "fetched", fetched)
	return items, nil
}

func (a *Adapter) fetchPage(ctx context.Context, pageNo, perPage int) (*Page, error) {
	params := url.Values{
		"serviceKey":  {a.cfg.Onbid.APIKey},
		"numOfRows":   {strconv.Itoa(perPage)},
		"pageNo":      {strconv.Itoa(pageNo)},
		"DPSL_MTD_CD": {disposalSale},
	}

	var resp *fetcher.Response
	policy := retry.Policy{
		MaxAttempts: a.cfg.Onbid.MaxAttempts,
		Delay:       retry.Exponential(a.cfg.Onbid.RetryBaseDelay),
		IsRetryable: isRetryable,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			a.logger.Warn("retrying page", "page", pageNo, "attempt", attempt, "wait", wait, "error", err)
		},
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		resp, err = a.client.Get(ctx, a.cfg.Onbid.Endpoint, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.metrics.PagesFetched.Add(1)
	return ParsePage(resp.Body, a.now())
}

func isRetryable(err error) bool {
	var fe *types.FetchError
	return errors.As(err, &fe) && fe.IsRetryable()
}
