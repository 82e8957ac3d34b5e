// Package textutil holds the date, number and whitespace normalization
// shared by every source extractor.
package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// KST is the fixed offset every source publishes times in.
var KST = time.FixedZone("KST", 9*60*60)

var (
	shortDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\s*\((\d{2}):(\d{2})\)`)
	fullDateRe  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:\s+(\d{1,2}):(\d{2}))?`)
	digitsRe    = regexp.MustCompile(`[^0-9]`)
)

// ParseKoreanDate converts the listing date formats to ISO-8601 with a
// +09:00 offset. Supported inputs:
//
//	"MM/DD (HH:mm)"     year inferred from now; "24:00" rolls to the next day
//	"YYYY.MM.DD HH:mm"  or "YYYY-MM-DD HH:mm"
//	"YYYY.MM.DD"        or "YYYY-MM-DD"
//
// Unparseable input yields "".
func ParseKoreanDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if m := shortDateRe.FindStringSubmatch(s); m != nil {
		t := time.Date(now.In(KST).Year(), time.Month(atoi(m[1])), atoi(m[2]), atoi(m[3]), atoi(m[4]), 0, 0, KST)
		return t.Format(time.RFC3339)
	}

	normalized := strings.NewReplacer(".", "-", "/", "-").Replace(s)
	if m := fullDateRe.FindStringSubmatch(normalized); m != nil {
		hour, minute := 0, 0
		if m[4] != "" {
			hour, minute = atoi(m[4]), atoi(m[5])
		}
		t := time.Date(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), hour, minute, 0, 0, KST)
		return t.Format(time.RFC3339)
	}

	return ""
}

// NormalizeDate returns s unchanged when it is already RFC 3339, otherwise
// ParseKoreanDate(s, now).
func NormalizeDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s
	}
	return ParseKoreanDate(s, now)
}

// ParseCompactDatetime converts "YYYYMMDDHHmmss" or "YYYYMMDD" (separators
// ignored) to ISO-8601 KST.
func ParseCompactDatetime(s string) string {
	d := digitsRe.ReplaceAllString(s, "")
	switch {
	case len(d) >= 14:
		t := time.Date(atoi(d[0:4]), time.Month(atoi(d[4:6])), atoi(d[6:8]), atoi(d[8:10]), atoi(d[10:12]), atoi(d[12:14]), 0, KST)
		return t.Format(time.RFC3339)
	case len(d) >= 8:
		t := time.Date(atoi(d[0:4]), time.Month(atoi(d[4:6])), atoi(d[6:8]), 0, 0, 0, 0, KST)
		return t.Format(time.RFC3339)
	}
	return ""
}

// ParseCompactDate converts an exact "YYYYMMDD" value to the given hour KST.
func ParseCompactDate(s string, hour int) string {
	s = strings.TrimSpace(s)
	if len(s) != 8 || digitsRe.MatchString(s) {
		return ""
	}
	t := time.Date(atoi(s[0:4]), time.Month(atoi(s[4:6])), atoi(s[6:8]), hour, 0, 0, 0, KST)
	return t.Format(time.RFC3339)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
