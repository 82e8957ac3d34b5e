// Package submit posts normalized items and inspection reports to the
// backend's upsert endpoints.
package submit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/observability"
	"github.com/IshaanNene/auction-ingest/internal/retry"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

const (
	vehiclePath    = "/api/vehicles/upsert"
	inspectionPath = "/api/vehicles/inspection/upsert"

	maxErrorBody = 200
)

// Result counts the outcome of one batch.
type Result struct {
	Submitted int `json:"submitted"`
	Failed    int `json:"failed"`
}

// Client submits records one at a time, retrying each independently.
type Client struct {
	http        *resty.Client
	maxAttempts int
	delay       func(attempt int) time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewClient creates a client for the configured backend.
func NewClient(cfg config.APIConfig, metrics *observability.Metrics, logger *slog.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")

	return &Client{
		http:        client,
		maxAttempts: cfg.MaxAttempts,
		delay:       retry.Exponential(cfg.RetryBaseDelay),
		metrics:     metrics,
		logger:      logger.With("component", "submit"),
		now:         time.Now,
	}
}

// SubmitItems upserts every item. A failed item does not stop the batch.
func (c *Client) SubmitItems(ctx context.Context, items []*types.AuctionItem) Result {
	var res Result
	now := c.now()
	for _, item := range items {
		if ctx.Err() != nil {
			res.Failed += len(items) - res.Submitted - res.Failed
			break
		}
		err := c.post(ctx, vehiclePath, item.SourceID, NewVehiclePayload(item, now))
		if err != nil {
			res.Failed++
			c.logger.Error("vehicle submission failed", "source_id", item.SourceID, "error", err)
			continue
		}
		res.Submitted++
		c.logger.Debug("vehicle submitted",
			"progress", fmt.Sprintf("%d/%d", res.Submitted, len(items)),
			"source_id", item.SourceID,
			"model", item.ModelName,
		)
	}
	return res
}

// SubmitReports upserts every inspection report.
func (c *Client) SubmitReports(ctx context.Context, reports []*types.InspectionReport) Result {
	var res Result
	for _, r := range reports {
		if ctx.Err() != nil {
			res.Failed += len(reports) - res.Submitted - res.Failed
			break
		}
		if err := c.post(ctx, inspectionPath, r.MgmtNumber, NewInspectionPayload(r)); err != nil {
			res.Failed++
			c.logger.Error("inspection submission failed", "mgmt_number", r.MgmtNumber, "error", err)
			continue
		}
		res.Submitted++
		c.logger.Debug("inspection submitted", "mgmt_number", r.MgmtNumber)
	}
	return res
}

func (c *Client) post(ctx context.Context, path, key string, payload any) error {
	policy := retry.Policy{
		MaxAttempts: c.maxAttempts,
		Delay:       c.delay,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			c.metrics.SubmissionsRetried.Add(1)
			c.logger.Warn("submission attempt failed, retrying",
				"key", key,
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		},
	}

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(payload).
			Post(path)
		if err != nil {
			return &types.SubmitError{Endpoint: path, Key: key, Err: err}
		}
		if resp.IsError() {
			return &types.SubmitError{
				Endpoint:   path,
				Key:        key,
				StatusCode: resp.StatusCode(),
				Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), maxErrorBody)),
			}
		}
		return nil
	})
	if err != nil {
		c.metrics.SubmissionsFailed.Add(1)
		return err
	}
	c.metrics.SubmissionsOK.Add(1)
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
