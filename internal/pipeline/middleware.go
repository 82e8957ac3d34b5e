package pipeline

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

// TrimMiddleware trims whitespace from all string fields and drops blank
// image URLs.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(item *types.AuctionItem) (*types.AuctionItem, error) {
	for _, f := range []*string{
		&item.SourceID, &item.MgmtNumber, &item.CaseNumber, &item.CarNumber,
		&item.ModelName, &item.Manufacturer, &item.FuelType, &item.Transmission,
		&item.BidDeadline, &item.ResultDate, &item.Status, &item.ResultStatus,
		&item.Location, &item.Organization, &item.CourtName, &item.PropertyType,
		&item.DetailURL, &item.InspectionReportURL,
	} {
		*f = strings.TrimSpace(*f)
	}

	urls := item.ImageURLs[:0]
	for _, u := range item.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	item.ImageURLs = urls
	return item, nil
}

// RequiredFieldsMiddleware drops items without a source id. Such items
// cannot be upserted.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(item *types.AuctionItem) (*types.AuctionItem, error) {
	if item.SourceID == "" {
		return nil, nil
	}
	return item, nil
}

// TerminalConsistencyMiddleware keeps status, resultStatus and finalPrice
// in agreement. A result must be a resolved label, a final price exists
// only for a sale, and a result is the status.
type TerminalConsistencyMiddleware struct{}

func (m *TerminalConsistencyMiddleware) Name() string { return "terminal_consistency" }

func (m *TerminalConsistencyMiddleware) Process(item *types.AuctionItem) (*types.AuctionItem, error) {
	if !types.IsPostAuctionStatus(item.ResultStatus) {
		item.ResultStatus = ""
	}
	if item.ResultStatus != types.StatusSold {
		item.FinalPrice = nil
	}
	if item.ResultStatus != "" {
		item.Status = item.ResultStatus
	}
	return item, nil
}

// PriceAuditMiddleware logs items that reached the pipeline without any
// price. Cancelled auctions are expected to have none.
type PriceAuditMiddleware struct {
	logger *slog.Logger
}

func NewPriceAuditMiddleware(logger *slog.Logger) *PriceAuditMiddleware {
	return &PriceAuditMiddleware{logger: logger.With("component", "price_audit")}
}

func (m *PriceAuditMiddleware) Name() string { return "price_audit" }

func (m *PriceAuditMiddleware) Process(item *types.AuctionItem) (*types.AuctionItem, error) {
	if !item.HasPrice() && item.Status != types.StatusCancelled {
		m.logger.Warn("item has no price", "key", item.Key(), "source", item.Source)
	}
	return item, nil
}
