package types

import (
	"strings"
	"time"
)

// Source identifies which auction site an item was captured from.
type Source string

const (
	SourceAutomart     Source = "automart"
	SourceCourtAuction Source = "court_auction"
	SourceOnbid        Source = "onbid"
)

// ParseSource maps a configuration string onto a Source.
func ParseSource(name string) (Source, bool) {
	switch Source(strings.ToLower(strings.TrimSpace(name))) {
	case SourceAutomart:
		return SourceAutomart, true
	case SourceCourtAuction:
		return SourceCourtAuction, true
	case SourceOnbid:
		return SourceOnbid, true
	}
	return "", false
}

// Status labels used by every source.
const (
	StatusBidding   = "입찰중"
	StatusFailed    = "유찰"
	StatusSold      = "매각"
	StatusCancelled = "취소"
	StatusSuspended = "중지"
)

// IsPostAuctionStatus reports whether the label describes a resolved round.
// Only 매각 and 취소 are final; a 유찰 round is usually followed by another.
func IsPostAuctionStatus(status string) bool {
	return status == StatusSold || status == StatusFailed || status == StatusCancelled
}

// AuctionItem is the canonical record shared by all sources.
type AuctionItem struct {
	// SourceID is unique per source+listing+variant and stable across runs.
	SourceID string `json:"sourceId"`
	Source   Source `json:"source"`

	MgmtNumber string `json:"mgmtNumber,omitempty"`
	CaseNumber string `json:"caseNumber,omitempty"`
	CarNumber  string `json:"carNumber,omitempty"`

	ModelName    string `json:"modelName"`
	Manufacturer string `json:"manufacturer,omitempty"`
	FuelType     string `json:"fuelType,omitempty"`
	Transmission string `json:"transmission,omitempty"`
	Year         *int   `json:"year,omitempty"`
	Mileage      *int   `json:"mileage,omitempty"`

	Price        *int64 `json:"price,omitempty"`
	MinBidPrice  *int64 `json:"minBidPrice,omitempty"`
	FinalPrice   *int64 `json:"finalPrice,omitempty"`
	BidDeadline  string `json:"bidDeadline,omitempty"`
	ResultDate   string `json:"resultDate,omitempty"`
	AuctionCount *int   `json:"auctionCount,omitempty"`

	Status       string `json:"status"`
	ResultStatus string `json:"resultStatus,omitempty"`

	Location            string   `json:"location,omitempty"`
	Organization        string   `json:"organization,omitempty"`
	CourtName           string   `json:"courtName,omitempty"`
	PropertyType        string   `json:"propertyType,omitempty"`
	DetailURL           string   `json:"detailUrl,omitempty"`
	ImageURLs           []string `json:"imageUrls,omitempty"`
	InspectionReportURL string   `json:"inspectionReportUrl,omitempty"`

	ScrapedAt time.Time `json:"scrapedAt"`
}

// NewAuctionItem creates an item stamped with the capture time.
func NewAuctionItem(source Source, sourceID string) *AuctionItem {
	return &AuctionItem{
		SourceID:  sourceID,
		Source:    source,
		Status:    StatusBidding,
		ScrapedAt: time.Now(),
	}
}

// Key returns the most human-friendly identifier for log lines.
func (i *AuctionItem) Key() string {
	if i.MgmtNumber != "" {
		return i.MgmtNumber
	}
	return i.SourceID
}

// HasPrice reports whether a listed or minimum bid price was captured.
func (i *AuctionItem) HasPrice() bool {
	return i.Price != nil || i.MinBidPrice != nil
}

// SetResult records a resolved outcome. finalPrice may be nil for
// outcomes without a sale (유찰, 취소). The price is copied, so the item
// never shares it with another field.
func (i *AuctionItem) SetResult(resultStatus string, finalPrice *int64) {
	i.Status = resultStatus
	i.ResultStatus = resultStatus
	i.FinalPrice = cloneInt64(finalPrice)
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
