package courtauction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/auction-ingest/internal/browser"
	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/observability"
	"github.com/IshaanNene/auction-ingest/internal/retry"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

const (
	EntryURL     = "https://www.courtauction.go.kr/pgj/index.on?w2xPath=/pgj/ui/pgj100/PGJ151F00.xml"
	searchAPIKey = "searchControllerMain.on"
)

// searchJS presses the portal's search button.
const searchJS = `() => {
	const btn = document.querySelector('[id$="btn_gdsDtlSrch"], [id$="btn_srch"], input[type="button"][value="검색"], button[title="검색"]');
	if (!btn) return 'missing';
	btn.click();
	return 'clicked';
}`

// replayJS re-sends the captured search request from inside the page so
// the session's cookies and origin apply.
const replayJS = `async (url, body, headers) => {
	const res = await fetch(url, { method: 'POST', body: body, headers: headers, credentials: 'include' });
	if (!res.ok) throw new Error('HTTP ' + res.status);
	return await res.text();
}`

// headers the browser sets itself and refuses from fetch
var managedHeaders = map[string]bool{
	"host": true, "cookie": true, "content-length": true, "user-agent": true,
	"referer": true, "origin": true, "accept-encoding": true, "connection": true,
}

// Adapter scrapes the court auction portal through a browser session.
type Adapter struct {
	cfg     config.ScraperConfig
	sess    browser.Session
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a court auction adapter.
func New(logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	return &Adapter{
		metrics: metrics,
		logger:  logger.With("component", "court_auction"),
		now:     time.Now,
	}
}

func (a *Adapter) Name() string         { return "법원경매" }
func (a *Adapter) Source() types.Source { return types.SourceCourtAuction }

func (a *Adapter) Init(ctx context.Context, sess browser.Session, cfg *config.Config) error {
	if sess == nil {
		return types.ErrNoSession
	}
	a.sess = sess
	a.cfg = cfg.Scraper
	return nil
}

// InspectionReports always returns nil; the portal publishes none.
func (a *Adapter) InspectionReports() []*types.InspectionReport { return nil }

func (a *Adapter) Cleanup(ctx context.Context) error { return nil }

// Scrape captures the first search response and replays it for later
// pages. A missing first response yields zero items; a block signal stops
// the run but keeps what was collected.
func (a *Adapter) Scrape(ctx context.Context) ([]*types.AuctionItem, error) {
	a.logger.Info("opening search page", "url", EntryURL)
	if err := a.sess.Navigate(ctx, EntryURL); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.metrics.PagesFailed.Add(1)
		a.logger.Warn("search page unavailable", "error", err)
		return nil, nil
	}
	if err := retry.Sleep(ctx, a.cfg.PageDelay); err != nil {
		return nil, err
	}

	captured, err := a.sess.Capture(ctx, isSearchRequest, a.cfg.CaptureTimeout, func() error {
		res, err := a.sess.Eval(ctx, searchJS)
		if err != nil {
			return err
		}
		if res == "missing" {
			a.logger.Warn("search button not found, waiting for page-initiated search")
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, types.ErrNoResponse) {
			a.logger.Warn("no search response captured", "timeout", a.cfg.CaptureTimeout)
		} else {
			a.logger.Warn("search capture failed", "error", err)
		}
		return nil, nil
	}

	first, err := a.decode(1, []byte(captured.Body))
	if err != nil {
		a.logger.Warn("first page unusable", "error", err)
		return nil, nil
	}
	items := first.Items
	if first.Blocked {
		a.logger.Warn("blocked by source, stopping", "page", 1, "error", types.ErrBlocked)
		return items, nil
	}

	last := min(first.TotalPages(), a.cfg.MaxPages)
	a.logger.Info("search captured",
		"total", first.TotalCount,
		"page_size", first.PageSize,
		"pages", last,
	)

	for page := 2; page <= last; page++ {
		if err := retry.Sleep(ctx, a.cfg.PageDelay); err != nil {
			return items, err
		}
		body, err := a.replay(ctx, captured, page)
		if err != nil {
			if ctx.Err() != nil {
				return items, ctx.Err()
			}
			a.metrics.PagesFailed.Add(1)
			a.logger.Warn("page replay failed, stopping", "page", page, "error", err)
			break
		}
		next, err := a.decode(page, []byte(body))
		if err != nil {
			a.logger.Warn("page unusable, stopping", "page", page, "error", err)
			break
		}
		if next.Blocked {
			a.logger.Warn("blocked by source, stopping", "page", page, "error", types.ErrBlocked)
			break
		}
		if len(next.Items) == 0 {
			a.logger.Info("empty page, stopping", "page", page)
			break
		}
		items = append(items, next.Items...)
	}

	a.logger.Info("court auction scrape complete", "items", len(items))
	return items, nil
}

func (a *Adapter) decode(page int, body []byte) (*SearchPage, error) {
	a.metrics.PagesFetched.Add(1)
	res, err := ParseResponse(body, a.now())
	if err != nil {
		return nil, err
	}
	for _, perr := range res.Skipped {
		a.logger.Debug("row skipped", "page", page, "error", perr)
	}
	a.metrics.RowsParsed.Add(int64(len(res.Items)))
	a.metrics.RowsSkipped.Add(int64(len(res.Skipped)))
	a.logger.Info("page processed", "page", page, "items", len(res.Items))
	return res, nil
}

func (a *Adapter) replay(ctx context.Context, captured *browser.Captured, page int) (string, error) {
	body, err := WithPageNo(captured.RequestBody, page)
	if err != nil {
		return "", err
	}
	headers := map[string]string{}
	for k, v := range captured.Headers {
		lk := strings.ToLower(k)
		if managedHeaders[lk] || strings.HasPrefix(lk, "sec-") || strings.HasPrefix(k, ":") {
			continue
		}
		headers[k] = v
	}
	if !hasHeader(headers, "content-type") {
		headers["Content-Type"] = "application/json;charset=UTF-8"
	}
	return a.sess.Eval(ctx, replayJS, captured.URL, body, headers)
}

func hasHeader(h map[string]string, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func isSearchRequest(url string) bool {
	return strings.Contains(url, searchAPIKey)
}

// WithPageNo rewrites dma_pageInfo.pageNo in a captured request body,
// keeping the field's original JSON type.
func WithPageNo(body string, page int) (string, error) {
	var req map[string]any
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return "", fmt.Errorf("decode captured request: %w", err)
	}
	info, ok := req["dma_pageInfo"].(map[string]any)
	if !ok {
		return "", errors.New("captured request has no dma_pageInfo")
	}
	if _, isString := info["pageNo"].(string); isString {
		info["pageNo"] = fmt.Sprint(page)
	} else {
		info["pageNo"] = page
	}
	out, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode replay request: %w", err)
	}
	return string(out), nil
}
