package submit

import (
	"time"

	"github.com/IshaanNene/auction-ingest/internal/textutil"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

// VehiclePayload is the body of a vehicle upsert.
type VehiclePayload struct {
	MgmtNumber   string       `json:"mgmt_number"`
	CarNumber    string       `json:"car_number,omitempty"`
	Manufacturer string       `json:"manufacturer,omitempty"`
	ModelName    string       `json:"model_name"`
	FuelType     string       `json:"fuel_type,omitempty"`
	Transmission string       `json:"transmission,omitempty"`
	Year         *int         `json:"year,omitempty"`
	Mileage      *int         `json:"mileage,omitempty"`
	Price        *int64       `json:"price,omitempty"`
	MinBidPrice  *int64       `json:"min_bid_price,omitempty"`
	DueDate      string       `json:"due_date,omitempty"`
	AuctionCount *int         `json:"auction_count,omitempty"`
	Status       string       `json:"status"`
	ImageURLs    []string     `json:"image_urls,omitempty"`
	DetailURL    string       `json:"detail_url,omitempty"`
	Organization string       `json:"organization,omitempty"`
	Location     string       `json:"location,omitempty"`
	Source       types.Source `json:"source"`
	SourceID     string       `json:"source_id"`
	FinalPrice   *int64       `json:"final_price,omitempty"`
	ResultStatus string       `json:"result_status,omitempty"`
	ResultDate   string       `json:"result_date,omitempty"`
	CaseNumber   string       `json:"case_number,omitempty"`
	CourtName    string       `json:"court_name,omitempty"`
	PropertyType string       `json:"property_type,omitempty"`
}

// InspectionPayload is the body of an inspection report upsert.
type InspectionPayload struct {
	VehicleSourceID string                     `json:"vehicle_source_id"`
	ReportURL       string                     `json:"report_url"`
	ReportData      types.InspectionReportData `json:"report_data"`
}

// NewVehiclePayload maps an item onto the backend's field names. Dates
// are normalized to ISO-8601; now anchors year-less dates.
func NewVehiclePayload(item *types.AuctionItem, now time.Time) VehiclePayload {
	mgmt := item.MgmtNumber
	if mgmt == "" {
		mgmt = item.SourceID
	}
	p := VehiclePayload{
		MgmtNumber:   mgmt,
		CarNumber:    item.CarNumber,
		Manufacturer: item.Manufacturer,
		ModelName:    item.ModelName,
		FuelType:     item.FuelType,
		Transmission: item.Transmission,
		Year:         item.Year,
		Mileage:      item.Mileage,
		Price:        item.Price,
		MinBidPrice:  item.MinBidPrice,
		AuctionCount: item.AuctionCount,
		Status:       item.Status,
		ImageURLs:    item.ImageURLs,
		DetailURL:    item.DetailURL,
		Organization: item.Organization,
		Location:     item.Location,
		Source:       item.Source,
		SourceID:     item.SourceID,
		FinalPrice:   item.FinalPrice,
		ResultStatus: item.ResultStatus,
		CaseNumber:   item.CaseNumber,
		CourtName:    item.CourtName,
		PropertyType: item.PropertyType,
	}
	if item.BidDeadline != "" {
		p.DueDate = textutil.NormalizeDate(item.BidDeadline, now)
	}
	if item.ResultDate != "" {
		p.ResultDate = textutil.NormalizeDate(item.ResultDate, now)
	}
	return p
}

// NewInspectionPayload maps a report onto the backend's field names.
func NewInspectionPayload(r *types.InspectionReport) InspectionPayload {
	return InspectionPayload{
		VehicleSourceID: r.VehicleSourceID,
		ReportURL:       r.ReportURL,
		ReportData:      r.Data,
	}
}
