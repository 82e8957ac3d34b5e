// Package courtauction scrapes vehicle listings from the court auction
// portal. The portal renders results from an internal JSON API; the adapter
// captures the first search response from a live session and replays the
// same request for later pages.
package courtauction

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/IshaanNene/auction-ingest/internal/textutil"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

const (
	detailURLFormat = "https://www.courtauction.go.kr/pgj/index.on?w2xPath=/pgj/ui/pgj100/PGJ154M03.xml&srnSaNo=%s&maemulSer=%s"
	propertyType    = "자동차"

	// sale day results are announced at 10:00
	saleHour = 10
)

var fuelCodes = map[string]string{
	"0001001": "휘발유",
	"0001002": "경유",
	"0001003": "LPG",
	"0001004": "전기",
	"0001005": "하이브리드",
	"0001006": "CNG",
	"0001007": "수소",
}

var transmissionCodes = map[string]string{
	"0001101": "자동",
	"0001102": "수동",
	"0001103": "세미오토",
}

var addressPrefixRe = regexp.MustCompile(`^사용본거지\s*:\s*`)

// flexString accepts a JSON string, number, bool or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(strings.TrimSpace(string(b)))
	return nil
}

func (f flexString) String() string { return string(f) }

// Row is one entry of dlt_srchResult.
type Row struct {
	CaseNumber   flexString `json:"srnSaNo"`
	ItemSeq      flexString `json:"maemulSer"`
	CarName      flexString `json:"carNm"`
	BuildingName flexString `json:"buldNm"`
	Maker        flexString `json:"jejosaNm"`
	FuelCode     flexString `json:"fuelKindcd"`
	GearCode     flexString `json:"bsgFormCd"`
	ModelYear    flexString `json:"carYrtype"`
	Appraisal    flexString `json:"gamevalAmt"`
	NotifyMinBid flexString `json:"notifyMinmaePrice1"`
	MinBid       flexString `json:"minmaePrice"`
	SaleDate     flexString `json:"maeGiil"`
	Address      flexString `json:"printSt"`
	CourtName    flexString `json:"jiwonNm"`
	Department   flexString `json:"jpDeptNm"`
	FailedCount  flexString `json:"yuchalCnt"`
	SoldAmount   flexString `json:"maeAmt"`
}

type pageInfo struct {
	TotalCount flexString `json:"totalCnt"`
	PageSize   flexString `json:"pageSize"`
	PageNo     flexString `json:"pageNo"`
}

type searchResponse struct {
	IPCheck flexString `json:"ipcheck"`
	Data    struct {
		IPCheck  flexString `json:"ipcheck"`
		PageInfo pageInfo   `json:"dma_pageInfo"`
		Results  []Row      `json:"dlt_srchResult"`
	} `json:"data"`
}

// SearchPage is one decoded search response.
type SearchPage struct {
	TotalCount int
	PageSize   int
	Items      []*types.AuctionItem
	Skipped    []error
	// Blocked is set when the portal answered ipcheck=false.
	Blocked bool
}

// TotalPages is ceil(TotalCount/PageSize), or 1 when the size is unknown.
func (p *SearchPage) TotalPages() int {
	if p.PageSize <= 0 {
		if p.TotalCount > 0 {
			return 1
		}
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// ParseResponse decodes a search response body.
func ParseResponse(body []byte, now time.Time) (*SearchPage, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	page := &SearchPage{}
	if resp.IPCheck == "false" || resp.Data.IPCheck == "false" {
		page.Blocked = true
		return page, nil
	}

	if n := textutil.ParseInt(resp.Data.PageInfo.TotalCount.String()); n != nil {
		page.TotalCount = *n
	}
	if n := textutil.ParseInt(resp.Data.PageInfo.PageSize.String()); n != nil {
		page.PageSize = *n
	}
	if page.PageSize == 0 {
		page.PageSize = len(resp.Data.Results)
	}

	for i := range resp.Data.Results {
		item, err := ParseRow(&resp.Data.Results[i], now)
		if err != nil {
			page.Skipped = append(page.Skipped, err)
			continue
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// ParseRow maps one search result to an AuctionItem.
func ParseRow(row *Row, now time.Time) (*types.AuctionItem, error) {
	caseNumber := row.CaseNumber.String()
	if caseNumber == "" {
		return nil, &types.ParseError{Source: types.SourceCourtAuction, Err: errors.New("missing case number")}
	}
	seq := row.ItemSeq.String()
	if seq == "" {
		seq = "1"
	}

	item := types.NewAuctionItem(types.SourceCourtAuction, fmt.Sprintf("court:%s:%s", caseNumber, seq))
	item.ScrapedAt = now
	item.MgmtNumber = caseNumber
	item.CaseNumber = caseNumber
	item.PropertyType = propertyType

	item.ModelName = row.CarName.String()
	if item.ModelName == "" {
		item.ModelName = row.BuildingName.String()
	}
	if item.ModelName == "" {
		item.ModelName = "법원경매 " + caseNumber
	}
	item.Manufacturer = row.Maker.String()
	item.FuelType = fuelCodes[row.FuelCode.String()]
	item.Transmission = transmissionCodes[row.GearCode.String()]
	item.Year = textutil.ParseYear(row.ModelYear.String(), now)

	item.MinBidPrice = textutil.ParseAmount(row.NotifyMinBid.String())
	if item.MinBidPrice == nil {
		item.MinBidPrice = textutil.ParseAmount(row.MinBid.String())
	}
	item.Price = textutil.ParseAmount(row.Appraisal.String())
	if item.Price == nil && item.MinBidPrice != nil {
		item.Price = types.Int64(*item.MinBidPrice)
	}
	item.BidDeadline = textutil.ParseCompactDate(row.SaleDate.String(), saleHour)

	item.Location = strings.TrimSpace(addressPrefixRe.ReplaceAllString(row.Address.String(), ""))
	item.CourtName = row.CourtName.String()
	item.Organization = item.CourtName
	if dept := row.Department.String(); dept != "" {
		item.Organization = strings.TrimSpace(item.CourtName + " " + dept)
	}

	if sold := textutil.ParseAmount(row.SoldAmount.String()); sold != nil && *sold > 0 {
		item.SetResult(types.StatusSold, sold)
	} else if failed := textutil.ParseInt(row.FailedCount.String()); failed != nil && *failed > 0 {
		item.AuctionCount = failed
	}

	item.DetailURL = fmt.Sprintf(detailURLFormat, url.QueryEscape(caseNumber), seq)
	return item, nil
}
