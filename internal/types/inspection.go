package types

import "time"

// InspectionReport ties one parsed report document to its vehicle.
type InspectionReport struct {
	VehicleSourceID string               `json:"vehicleSourceId"`
	MgmtNumber      string               `json:"mgmtNumber"`
	ReportURL       string               `json:"reportUrl"`
	Data            InspectionReportData `json:"data"`
	ScrapedAt       time.Time            `json:"scrapedAt"`
}

// InspectionReportData is the structured form of a semi-structured
// inspection page. Absent sections are omitted, never empty.
type InspectionReportData struct {
	BasicInfo                  *BasicInfo                   `json:"basic_info,omitempty"`
	Accessories                map[string]bool              `json:"accessories,omitempty"`
	FluidConditions            map[string]string            `json:"fluid_conditions,omitempty"`
	MechanicalInspection       map[string]map[string]string `json:"mechanical_inspection,omitempty"`
	BodyDiagram                map[string]BodyPart          `json:"body_diagram,omitempty"`
	ExteriorInteriorAssessment string                       `json:"exterior_interior_assessment,omitempty"`
	RepairRecommendations      string                       `json:"repair_recommendations,omitempty"`
	SpecialNotes               string                       `json:"special_notes,omitempty"`
	InsuranceHistory           *InsuranceHistory            `json:"insurance_history,omitempty"`
}

// BasicInfo holds the sparse vehicle summary at the top of a report.
type BasicInfo struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	VIN          string `json:"vin,omitempty"`
	Displacement string `json:"displacement,omitempty"`
	Color        string `json:"color,omitempty"`
	DriveType    string `json:"drive_type,omitempty"`
	Year         string `json:"year,omitempty"`
	Mileage      string `json:"mileage,omitempty"`
	FuelType     string `json:"fuel_type,omitempty"`
	Transmission string `json:"transmission,omitempty"`
	VehicleType  string `json:"vehicle_type,omitempty"`
}

// IsZero reports whether no field was found.
func (b BasicInfo) IsZero() bool {
	return b == BasicInfo{}
}

// BodyPart is one labeled panel of the body diagram.
type BodyPart struct {
	Part      string `json:"part"`
	Condition string `json:"condition"`
}

// InsuranceHistory summarizes insurance claims listed on a report.
type InsuranceHistory struct {
	Count       int    `json:"count"`
	TotalAmount int64  `json:"total_amount"`
	Details     string `json:"details"`
}

// SectionCount returns how many top-level sections are present.
func (d *InspectionReportData) SectionCount() int {
	n := 0
	if d.BasicInfo != nil {
		n++
	}
	if len(d.Accessories) > 0 {
		n++
	}
	if len(d.FluidConditions) > 0 {
		n++
	}
	if len(d.MechanicalInspection) > 0 {
		n++
	}
	if len(d.BodyDiagram) > 0 {
		n++
	}
	if d.ExteriorInteriorAssessment != "" {
		n++
	}
	if d.RepairRecommendations != "" {
		n++
	}
	if d.SpecialNotes != "" {
		n++
	}
	if d.InsuranceHistory != nil {
		n++
	}
	return n
}
