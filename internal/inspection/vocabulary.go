package inspection

import "github.com/IshaanNene/auction-ingest/internal/types"

// Three-tier grades used by fluid and mechanical sections.
const (
	GradeGood = "상"
	GradeFair = "중"
	GradePoor = "하"
)

var gradeSynonyms = map[string]string{
	"상":  GradeGood,
	"양호": GradeGood,
	"정상": GradeGood,
	"중":  GradeFair,
	"주의": GradeFair,
	"하":  GradePoor,
	"불량": GradePoor,
}

// NormalizeGrade maps a grade word onto the 상/중/하 scale. The second
// result is false for words outside the vocabulary.
func NormalizeGrade(v string) (string, bool) {
	g, ok := gradeSynonyms[v]
	return g, ok
}

type labelField struct {
	labels []string
	set    func(b *types.BasicInfo, v string)
}

// Ordered synonyms per basic-info field; the first label that yields a
// value wins.
var basicInfoLabels = []labelField{
	{[]string{"제조사", "메이커"}, func(b *types.BasicInfo, v string) { b.Manufacturer = v }},
	{[]string{"차량명", "차명"}, func(b *types.BasicInfo, v string) { b.Model = v }},
	{[]string{"차대번호", "VIN"}, func(b *types.BasicInfo, v string) { b.VIN = v }},
	{[]string{"배기량"}, func(b *types.BasicInfo, v string) { b.Displacement = v }},
	{[]string{"색상"}, func(b *types.BasicInfo, v string) { b.Color = v }},
	{[]string{"구동방식", "구동"}, func(b *types.BasicInfo, v string) { b.DriveType = v }},
	{[]string{"연식", "년식"}, func(b *types.BasicInfo, v string) { b.Year = v }},
	{[]string{"주행거리", "주행"}, func(b *types.BasicInfo, v string) { b.Mileage = v }},
	{[]string{"연료", "사용연료"}, func(b *types.BasicInfo, v string) { b.FuelType = v }},
	{[]string{"변속기", "변속"}, func(b *types.BasicInfo, v string) { b.Transmission = v }},
	{[]string{"차종", "용도"}, func(b *types.BasicInfo, v string) { b.VehicleType = v }},
}

var fluidLabels = []struct{ label, key string }{
	{"배터리", "battery"},
	{"엔진오일", "engine_oil"},
	{"냉각수", "coolant"},
	{"파워스티어링오일", "power_steering_oil"},
	{"파워스티어링", "power_steering_oil"},
	{"브레이크액", "brake_fluid"},
	{"워셔액", "washer_fluid"},
	{"변속기오일", "transmission_oil"},
	{"변속기 오일", "transmission_oil"},
}

var mechanicalCategories = []string{"엔진", "변속기", "조향", "제동", "전기", "현가장치"}

// BodyPartNames names the panels of the body diagram by letter.
var BodyPartNames = map[string]string{
	"A": "후드",
	"B": "프론트 펜더(좌)",
	"C": "프론트 펜더(우)",
	"D": "프론트 도어(좌)",
	"E": "프론트 도어(우)",
	"F": "리어 도어(좌)",
	"G": "리어 도어(우)",
	"H": "사이드 패널(좌)",
	"I": "사이드 패널(우)",
	"J": "트렁크 리드",
	"K": "라디에이터 서포트",
	"L": "루프 패널",
	"M": "플로어",
	"N": "프론트 범퍼",
	"O": "리어 범퍼",
	"P": "프론트 휠(좌)",
	"Q": "프론트 휠(우)",
}

var bodyConditions = map[string]string{
	"정상": "normal",
	"흠집": "scratch",
	"수리": "repair",
	"교환": "replace",
	"도색": "paint",
}

// decorative glyphs stripped by the header-only filter
const bulletGlyphs = "◈■□●○◆◇▶►·※-•▪"
