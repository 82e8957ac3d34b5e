package textutil

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, KST)

func TestParseKoreanDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"03/15 (14:00)", "2026-03-15T14:00:00+09:00"},
		{"3/5(09:30)", "2026-03-05T09:30:00+09:00"},
		{"03/15 (24:00)", "2026-03-16T00:00:00+09:00"},
		{"12/31 (24:00)", "2027-01-01T00:00:00+09:00"},
		{"2026.03.20 17:00", "2026-03-20T17:00:00+09:00"},
		{"2026-03-20", "2026-03-20T00:00:00+09:00"},
		{"2026.03.20", "2026-03-20T00:00:00+09:00"},
		{"미정", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseKoreanDate(tt.in, fixedNow); got != tt.want {
			t.Errorf("ParseKoreanDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseCompactDatetime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20260320170000", "2026-03-20T17:00:00+09:00"},
		{"2026-03-20 17:00:00", "2026-03-20T17:00:00+09:00"},
		{"20260320", "2026-03-20T00:00:00+09:00"},
		{"2026", ""},
	}
	for _, tt := range tests {
		if got := ParseCompactDatetime(tt.in); got != tt.want {
			t.Errorf("ParseCompactDatetime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseCompactDate(t *testing.T) {
	if got := ParseCompactDate("20260401", 10); got != "2026-04-01T10:00:00+09:00" {
		t.Errorf("got %q", got)
	}
	if got := ParseCompactDate("2026-04-01", 10); got != "" {
		t.Errorf("expected empty for separated input, got %q", got)
	}
}

func TestParsePrice(t *testing.T) {
	if p := ParsePrice("12,345,000원"); p == nil || *p != 12345000 {
		t.Errorf("expected 12345000, got %v", p)
	}
	if p := ParsePrice("-"); p != nil {
		t.Errorf("expected nil, got %d", *p)
	}
}

func TestParseAmount(t *testing.T) {
	if p := ParseAmount("1,500,000"); p == nil || *p != 1500000 {
		t.Errorf("expected 1500000, got %v", p)
	}
	if p := ParseAmount("0"); p != nil {
		t.Errorf("zero should be nil, got %d", *p)
	}
	if p := ParseAmount("abc"); p != nil {
		t.Errorf("garbage should be nil, got %d", *p)
	}
}

func TestParseYear(t *testing.T) {
	if y := ParseYear("2019년식", fixedNow); y == nil || *y != 2019 {
		t.Errorf("expected 2019, got %v", y)
	}
	if y := ParseYear("202703", fixedNow); y == nil || *y != 2027 {
		t.Errorf("next model year should be accepted, got %v", y)
	}
	if y := ParseYear("2030", fixedNow); y != nil {
		t.Errorf("future year should be rejected, got %d", *y)
	}
	if y := ParseYear("19", fixedNow); y != nil {
		t.Errorf("short input should be rejected, got %d", *y)
	}
}

func TestLines(t *testing.T) {
	got := Lines(" 12가3456 (경유)\r\n  쏘나타 \n")
	if len(got) != 2 || got[0] != "12가3456 (경유)" || got[1] != "쏘나타" {
		t.Errorf("unexpected lines: %q", got)
	}
}

func TestNormalizeDate(t *testing.T) {
	if got := NormalizeDate("2026-03-15T14:00:00+09:00", fixedNow); got != "2026-03-15T14:00:00+09:00" {
		t.Errorf("RFC 3339 input changed: %q", got)
	}
	if got := NormalizeDate("03/15 (14:00)", fixedNow); got != "2026-03-15T14:00:00+09:00" {
		t.Errorf("short date = %q", got)
	}
	if got := NormalizeDate("미정", fixedNow); got != "" {
		t.Errorf("garbage = %q, want empty", got)
	}
}
