package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var firstNumberRe = regexp.MustCompile(`\d+`)

// ParsePrice extracts the first run of digits after removing thousands
// separators: "12,345,000원" -> 12345000. Returns nil when no digits exist.
func ParsePrice(s string) *int64 {
	m := firstNumberRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return nil
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ParseAmount parses a whole-number amount with optional separators.
// Zero and garbage both yield nil: sources use 0 for "not set".
func ParseAmount(s string) *int64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	return &n
}

// ParseInt parses the leading integer of s ("2019년" -> 2019).
func ParseInt(s string) *int {
	m := firstNumberRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// ParseYear takes the first four digits of s and accepts them only as a
// plausible model year (1900 < y <= next year).
func ParseYear(s string, now time.Time) *int {
	d := digitsRe.ReplaceAllString(s, "")
	if len(d) < 4 {
		return nil
	}
	y, err := strconv.Atoi(d[:4])
	if err != nil || y <= 1900 || y > now.Year()+1 {
		return nil
	}
	return &y
}
