package inspection

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func parseFixture(t *testing.T, name string) types.InspectionReportData {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	data, err := NewParser(testLogger).Parse(f)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return data
}

func TestParseReportFixture(t *testing.T) {
	data := parseFixture(t, "report.html")

	wantBasic := &types.BasicInfo{
		Manufacturer: "현대",
		Model:        "그랜저 IG 3.0",
		VIN:          "KMHF141DBJA123456",
		Displacement: "2,999cc",
		Color:        "흰색",
		DriveType:    "2WD",
		Year:         "2018",
		Mileage:      "85,432km",
		FuelType:     "휘발유",
		Transmission: "자동",
		VehicleType:  "승용",
	}
	if diff := cmp.Diff(wantBasic, data.BasicInfo); diff != "" {
		t.Errorf("basic info mismatch (-want +got):\n%s", diff)
	}

	wantAccessories := map[string]bool{"네비게이션": true, "선루프": false, "후방카메라": true, "열선시트": true}
	if diff := cmp.Diff(wantAccessories, data.Accessories); diff != "" {
		t.Errorf("accessories mismatch (-want +got):\n%s", diff)
	}

	wantFluids := map[string]string{"battery": "상", "engine_oil": "중", "coolant": "하", "brake_fluid": "상"}
	if diff := cmp.Diff(wantFluids, data.FluidConditions); diff != "" {
		t.Errorf("fluids mismatch (-want +got):\n%s", diff)
	}

	wantMechanical := map[string]map[string]string{
		"엔진": {"작동상태": "상", "오일누유": "중"},
		"조향": {"스티어링 기어": "하", "작동": "상"},
	}
	if diff := cmp.Diff(wantMechanical, data.MechanicalInspection); diff != "" {
		t.Errorf("mechanical mismatch (-want +got):\n%s", diff)
	}

	wantBody := map[string]types.BodyPart{
		"A": {Part: "후드", Condition: "normal"},
		"B": {Part: "프론트 펜더(좌)", Condition: "scratch"},
		"J": {Part: "트렁크 리드", Condition: "replace"},
		"N": {Part: "프론트 범퍼", Condition: "찍힘"},
	}
	if diff := cmp.Diff(wantBody, data.BodyDiagram); diff != "" {
		t.Errorf("body diagram mismatch (-want +got):\n%s", diff)
	}

	if data.SpecialNotes != "전면 범퍼 하단 긁힘 있음, 타이어 마모 심함" {
		t.Errorf("special notes = %q", data.SpecialNotes)
	}
	if data.ExteriorInteriorAssessment != "실내 시트 오염 경미, 외관 양호함" {
		t.Errorf("assessment = %q", data.ExteriorInteriorAssessment)
	}
	if data.RepairRecommendations != "" {
		t.Errorf("repair recommendations = %q, want empty", data.RepairRecommendations)
	}

	wantInsurance := &types.InsuranceHistory{Count: 2, TotalAmount: 2080000, Details: "2회 1,250,000원 / 830,000원"}
	if diff := cmp.Diff(wantInsurance, data.InsuranceHistory); diff != "" {
		t.Errorf("insurance mismatch (-want +got):\n%s", diff)
	}
}

func TestBodyDiagramSingleRow(t *testing.T) {
	data, err := NewParser(testLogger).ParseString(`<table><tr><td>A</td><td>정상</td></tr></table>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	want := map[string]types.BodyPart{"A": {Part: "후드", Condition: "normal"}}
	if diff := cmp.Diff(want, data.BodyDiagram); diff != "" {
		t.Errorf("body diagram mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderOnlyNotesOmitted(t *testing.T) {
	pages := []string{
		`<table><tr><td>◈ 특이사항</td></tr></table>`,
		`<table><tr><th>◈ 특이사항</th><td>◈ 특이사항</td></tr></table>`,
		`<table><tr><th>특이사항</th><td>※ -</td></tr></table>`,
	}
	for _, page := range pages {
		data, err := NewParser(testLogger).ParseString(page)
		if err != nil {
			t.Fatalf("ParseString: %v", err)
		}
		if data.SpecialNotes != "" {
			t.Errorf("%s: special notes = %q, want omitted", page, data.SpecialNotes)
		}
	}
}

func TestEmptyPageHasNoSections(t *testing.T) {
	data, err := NewParser(testLogger).ParseString(`<html><body><p>점검 기록 없음</p></body></html>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if n := data.SectionCount(); n != 0 {
		t.Errorf("SectionCount = %d, want 0", n)
	}
	if data.BasicInfo != nil || data.Accessories != nil || data.BodyDiagram != nil {
		t.Errorf("expected absent sections, got %+v", data)
	}
}

func TestNormalizeGrade(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"상", "상", true},
		{"양호", "상", true},
		{"정상", "상", true},
		{"중", "중", true},
		{"주의", "중", true},
		{"하", "하", true},
		{"불량", "하", true},
		{"보통", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeGrade(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeGrade(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsHeaderOnly(t *testing.T) {
	tests := []struct {
		value, label string
		want         bool
	}{
		{"◈ 특이사항", "특이사항", true},
		{"■ 없음", "특이사항", true},
		{"엔진 누유 확인 필요", "특이사항", false},
		{"● ● ●", "특이사항", true},
	}
	for _, tt := range tests {
		if got := IsHeaderOnly(tt.value, tt.label); got != tt.want {
			t.Errorf("IsHeaderOnly(%q, %q) = %v, want %v", tt.value, tt.label, got, tt.want)
		}
	}
}

func TestAccessoryNameLengthLimit(t *testing.T) {
	long := strings.Repeat("가", 20)
	fits := strings.Repeat("나", 19)
	page := `<table><tr><td>■ ` + long + ` □ ` + fits + ` ■ 블랙박스</td></tr></table>`

	data, err := NewParser(testLogger).ParseString(page)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	want := map[string]bool{fits: false, "블랙박스": true}
	if diff := cmp.Diff(want, data.Accessories); diff != "" {
		t.Errorf("accessories mismatch (-want +got):\n%s", diff)
	}
}

func TestInsuranceTotal(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    int64
	}{
		{"claims only", "2회 1,250,000원 / 830,000원", 2080000},
		{"stated total wins", "2회 1,250,000원 / 830,000원 합계 2,080,000원", 2080000},
		{"total prefix", "총: 500,000원 (1건 500,000원)", 500000},
		{"no amounts", "이력 없음", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := claimTotal(tt.details); got != tt.want {
				t.Errorf("claimTotal(%q) = %d, want %d", tt.details, got, tt.want)
			}
		})
	}
}
