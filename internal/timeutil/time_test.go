package timeutil

import (
	"testing"
	"time"
)

func TestParseISO(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-12-29T12:00:00", time.Date(2024, 12, 29, 12, 0, 0, 0, time.UTC)},
		{"2024-12-29T12:00:00Z", time.Date(2024, 12, 29, 12, 0, 0, 0, time.UTC)},
		{"2024-12-29T12:00:00+05:30", time.Date(2024, 12, 29, 6, 30, 0, 0, time.UTC)},
		{"Mon, 02 Jan 2006 15:04:05 GMT", time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseISO(tt.in)
		if err != nil {
			t.Fatalf("ParseISO(%q): %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseISO(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got.Location() != time.UTC {
			t.Errorf("ParseISO(%q) location = %v, want UTC", tt.in, got.Location())
		}
	}
}

func TestParseISOErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date"} {
		if _, err := ParseISO(in); err == nil {
			t.Errorf("ParseISO(%q) expected error", in)
		}
	}
}

func TestFormatISO(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	got := FormatISO(time.Date(2024, 12, 29, 9, 0, 0, 0, loc))
	if got != "2024-12-29T07:00:00Z" {
		t.Errorf("FormatISO = %s", got)
	}
}

func TestParseOrNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseOrNow("", now); got != "2025-01-01T00:00:00Z" {
		t.Errorf("empty -> %s", got)
	}
	if got := ParseOrNow("garbage", now); got != "2025-01-01T00:00:00Z" {
		t.Errorf("garbage -> %s", got)
	}
	if got := ParseOrNow("2024-06-01T10:00:00+02:00", now); got != "2024-06-01T08:00:00Z" {
		t.Errorf("parsed -> %s", got)
	}
}
