// Package textutil holds the small string helpers shared by ingest and ranking.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

var wsRe = regexp.MustCompile(`\s+`)

// StableHash returns the hex SHA-256 digest of text. It keys the page cache
// and identifies extracted content for summary caching.
func StableHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// NormalizeWhitespace collapses whitespace runs into single spaces and trims the ends.
func NormalizeWhitespace(text string) string {
	return wsRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

// ContainsAny reports how many of the needles occur in text, ignoring case.
// Empty needles are skipped and each needle counts at most once.
func ContainsAny(text string, needles []string) int {
	if text == "" {
		return 0
	}
	t := strings.ToLower(text)
	n := 0
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(t, strings.ToLower(needle)) {
			n++
		}
	}
	return n
}

// Truncate returns at most n characters of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}

// WordCount counts whitespace separated fields.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// FirstLine returns the first line of s, trimmed.
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
