package render

import (
	"strings"
	"time"
)

// ExpandVars substitutes placeholders in config-provided text such as the
// digest title.
//
// Supported variables:
//   - {.CurrentDate} => YYYY-MM-DD (UTC)
//   - {.CurrentTime} => HH:MM (UTC)
//   - {.Weekday}     => Monday, Tuesday, ...
func ExpandVars(s string, now time.Time) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	now = now.UTC()
	return strings.NewReplacer(
		"{.CurrentDate}", now.Format("2006-01-02"),
		"{.CurrentTime}", now.Format("15:04"),
		"{.Weekday}", now.Weekday().String(),
	).Replace(s)
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
