package ai

import (
	"regexp"
	"strings"
)

// TagInput is what the tagger sees of a feed.
type TagInput struct {
	FeedTitle     string
	FeedSubtitle  string
	EntryTitles   []string
	EntrySnippets []string
}

const maxTags = 5

var (
	tagSplit     = regexp.MustCompile(`[,\n;]+`)
	tagInvalid   = regexp.MustCompile(`[^a-z0-9-]+`)
	tagHyphenRun = regexp.MustCompile(`-{2,}`)
)

// NormalizeTags turns free-form model output into at most five lowercase,
// hyphenated, deduplicated tags.
func NormalizeTags(raw string) []string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range tagSplit.Split(text, -1) {
		tok := strings.TrimSpace(part)
		if tok == "" {
			continue
		}
		tok = strings.NewReplacer("_", "-", " ", "-").Replace(tok)
		tok = tagInvalid.ReplaceAllString(tok, "")
		tok = strings.Trim(tagHyphenRun.ReplaceAllString(tok, "-"), "-")
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) >= maxTags {
			break
		}
	}
	return out
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "- (none)\n"
	}
	return b.String()
}

func tagPrompt(in TagInput) string {
	return "You generate concise tags for a technical RSS feed.\n" +
		"Return 3-5 tags, comma-separated.\n" +
		"Rules: lowercase, use hyphens instead of spaces, no more than 5 tags.\n\n" +
		"Feed title: " + in.FeedTitle + "\n" +
		"Feed subtitle: " + in.FeedSubtitle + "\n\n" +
		"Recent entry titles:\n" + bulletList(in.EntryTitles) + "\n" +
		"Content snippets:\n" + bulletList(in.EntrySnippets)
}
