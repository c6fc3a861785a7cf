// Package timeutil normalizes feed timestamps to UTC ISO-8601 strings.
package timeutil

import (
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrEmpty is returned when there is no timestamp to parse.
var ErrEmpty = errors.New("timeutil: empty timestamp")

// NowUTC returns the current instant in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseISO parses s leniently (ISO-8601, RFC 1123, RFC 822 and the other
// formats feeds emit). Timestamps without a zone are taken as UTC.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatISO renders t as RFC 3339 in UTC.
func FormatISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseOrNow returns the normalized form of s, or now when s is empty or unparsable.
func ParseOrNow(s string, now time.Time) string {
	t, err := ParseISO(s)
	if err != nil {
		return FormatISO(now)
	}
	return FormatISO(t)
}
