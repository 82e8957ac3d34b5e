// Package onbid reads vehicle disposals from the public Onbid XML API.
package onbid

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IshaanNene/auction-ingest/internal/textutil"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

const statusUnknown = "알수없음"

var vehicleKeywords = []string{
	"자동차", "차량", "승용", "화물", "트럭", "SUV", "세단",
	"승합", "버스", "밴", "오토바이", "이륜", "덤프", "특수차",
	"레커", "지게차", "굴삭기",
}

// checked in order; the first substring match wins
var statusLabels = []struct{ label, status string }{
	{"공매중", types.StatusBidding},
	{"입찰중", types.StatusBidding},
	{"매각", types.StatusSold},
	{"유찰", types.StatusFailed},
	{"취소", types.StatusCancelled},
	{"중지", types.StatusSuspended},
}

// Item is one <item> of the car list.
type Item struct {
	PlanNo       string `xml:"PLNM_NO"`
	PublicNo     string `xml:"PBCT_NO"`
	MgmtNo       string `xml:"CLTR_MNMT_NO"`
	Name         string `xml:"CLTR_NM"`
	Model        string `xml:"MDL"`
	Maker        string `xml:"MANF"`
	ModelYear    string `xml:"NRGT"`
	Mileage      string `xml:"VHCL_MLGE"`
	Fuel         string `xml:"FUEL"`
	Gearbox      string `xml:"GRBX"`
	Appraisal    string `xml:"APSL_ASES_AVG_AMT"`
	MinBid       string `xml:"MIN_BID_PRC"`
	Displacement string `xml:"ENDPC"`
	OpensAt      string `xml:"PBCT_BEGN_DTM"`
	ClosesAt     string `xml:"PBCT_CLS_DTM"`
	StatusName   string `xml:"PBCT_CLTR_STAT_NM"`
	LotAddress   string `xml:"LDNM_ADRS"`
	RoadAddress  string `xml:"NMRD_ADRS"`
	Organization string `xml:"ORG_NM"`
}

type apiResponse struct {
	Header struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		Items      []Item `xml:"items>item"`
		TotalCount string `xml:"totalCount"`
		PageNo     string `xml:"pageNo"`
	} `xml:"body"`
}

// Page is one decoded API page.
type Page struct {
	TotalCount int
	// RawCount counts every <item>, vehicle or not.
	RawCount int
	Items    []*types.AuctionItem
	Skipped  []error
}

// ParsePage decodes an API response and keeps the vehicle items.
func ParsePage(body []byte, now time.Time) (*Page, error) {
	var resp apiResponse
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode onbid xml: %w", err)
	}
	if code := strings.TrimSpace(resp.Header.ResultCode); code != "" && code != "00" && code != "000" {
		return nil, fmt.Errorf("onbid api error %s: %s", code, strings.TrimSpace(resp.Header.ResultMsg))
	}

	page := &Page{RawCount: len(resp.Body.Items)}
	if n := textutil.ParseInt(resp.Body.TotalCount); n != nil {
		page.TotalCount = *n
	}
	for i := range resp.Body.Items {
		raw := resp.Body.Items[i].trimmed()
		if !raw.IsVehicle() {
			continue
		}
		item, err := raw.ToAuctionItem(now)
		if err != nil {
			page.Skipped = append(page.Skipped, err)
			continue
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (it Item) trimmed() Item {
	for _, f := range []*string{
		&it.PlanNo, &it.PublicNo, &it.MgmtNo, &it.Name, &it.Model, &it.Maker,
		&it.ModelYear, &it.Mileage, &it.Fuel, &it.Gearbox, &it.Appraisal,
		&it.MinBid, &it.Displacement, &it.OpensAt, &it.ClosesAt, &it.StatusName,
		&it.LotAddress, &it.RoadAddress, &it.Organization,
	} {
		*f = strings.TrimSpace(*f)
	}
	return it
}

// IsVehicle reports whether the item carries vehicle fields or a vehicle
// keyword in its name. The API also returns unrelated asset types.
func (it Item) IsVehicle() bool {
	if it.Maker != "" || it.Model != "" {
		return true
	}
	name := strings.ToLower(it.Name)
	for _, kw := range vehicleKeywords {
		if strings.Contains(name, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ToAuctionItem maps the item to the canonical record.
func (it Item) ToAuctionItem(now time.Time) (*types.AuctionItem, error) {
	if it.PlanNo == "" {
		return nil, &types.ParseError{Source: types.SourceOnbid, Key: it.MgmtNo, Err: errors.New("missing PLNM_NO")}
	}

	item := types.NewAuctionItem(types.SourceOnbid, fmt.Sprintf("onbid:%s-%s-%s", it.PlanNo, it.PublicNo, it.MgmtNo))
	item.ScrapedAt = now
	item.MgmtNumber = it.MgmtNo
	if item.MgmtNumber == "" {
		item.MgmtNumber = it.PlanNo
	}
	item.ModelName = it.Model
	if item.ModelName == "" {
		item.ModelName = it.Name
	}
	item.Manufacturer = it.Maker
	item.Year = textutil.ParseYear(it.ModelYear, now)
	item.Mileage = textutil.ParseInt(it.Mileage)
	item.FuelType = it.Fuel
	item.Transmission = it.Gearbox
	item.Price = textutil.ParseAmount(it.Appraisal)
	item.MinBidPrice = textutil.ParseAmount(it.MinBid)
	item.BidDeadline = textutil.ParseCompactDatetime(it.ClosesAt)
	item.Status = MapStatus(it.StatusName)
	item.Location = it.RoadAddress
	if item.Location == "" {
		item.Location = it.LotAddress
	}
	item.Organization = it.Organization
	item.PropertyType = "자동차"
	return item, nil
}

// MapStatus converts an Onbid status name to a status label. Unknown
// names pass through.
func MapStatus(name string) string {
	for _, s := range statusLabels {
		if strings.Contains(name, s.label) {
			return s.status
		}
	}
	if name == "" {
		return statusUnknown
	}
	return name
}
