// Package sources fills in display names and tags for feeds.
package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"techread/internal/ai"
	"techread/internal/ingest"
	"techread/internal/textutil"
)

const (
	maxEntryTitles = 10
	maxSnippets    = 4
	snippetChars   = 800
)

type FeedParser interface {
	ParseURL(ctx context.Context, url string) (ingest.Feed, error)
}

type ContentStore interface {
	RecentContent(ctx context.Context, sourceID int64, n int) ([]string, error)
}

type Tagger interface {
	GenerateTags(ctx context.Context, in ai.TagInput) (string, error)
}

// Deps are the collaborators Autofill needs. Posts and Tagger may be nil.
type Deps struct {
	Feeds  FeedParser
	Posts  ContentStore
	Tagger Tagger
}

type AutofillInput struct {
	SourceID int64 // 0 for a source that is not stored yet
	URL      string
	Name     string
	Tags     string
	Force    bool
}

// AutofillResult holds only the fields that changed; nil means keep.
type AutofillResult struct {
	Name     *string
	Tags     *string
	Warnings []string
}

// Changed reports whether anything should be written back.
func (r AutofillResult) Changed() bool {
	return r.Name != nil || r.Tags != nil
}

// Autofill infers a name from the feed title and asks the tagger for tags.
// A name is wanted when forced, empty or still equal to the URL; tags are
// wanted when forced or blank.
func Autofill(ctx context.Context, deps Deps, in AutofillInput) AutofillResult {
	var res AutofillResult
	wantName := in.Force || in.Name == "" || in.Name == in.URL
	wantTags := in.Force || strings.TrimSpace(in.Tags) == ""
	if !wantName && !wantTags {
		return res
	}

	feed, err := deps.Feeds.ParseURL(ctx, in.URL)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("failed to parse feed %s: %v", in.URL, err))
		return res
	}

	if wantName {
		if name := InferName(feed.Meta, in.URL); name != in.Name {
			res.Name = &name
		}
	}
	if !wantTags {
		return res
	}
	if deps.Tagger == nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("no tagger configured for %s", in.URL))
		return res
	}
	tags, err := deps.Tagger.GenerateTags(ctx, ai.TagInput{
		FeedTitle:     feed.Meta.Title,
		FeedSubtitle:  feed.Meta.Subtitle,
		EntryTitles:   entryTitles(feed.Entries),
		EntrySnippets: snippets(ctx, deps.Posts, in.SourceID),
	})
	switch {
	case err != nil:
		res.Warnings = append(res.Warnings, fmt.Sprintf("failed to generate tags for %s: %v", in.URL, err))
	case tags == "":
		res.Warnings = append(res.Warnings, fmt.Sprintf("no tags generated for %s", in.URL))
	case tags != in.Tags:
		res.Tags = &tags
	}
	return res
}

// InferName prefers the feed title, then the URL host, then the URL itself.
func InferName(meta ingest.FeedMeta, rawURL string) string {
	if t := strings.TrimSpace(meta.Title); t != "" {
		return t
	}
	if u, err := url.Parse(rawURL); err == nil {
		if u.Host != "" {
			return u.Host
		}
		if u.Path != "" {
			return u.Path
		}
	}
	return rawURL
}

func entryTitles(entries []ingest.FeedEntry) []string {
	var out []string
	for _, e := range entries {
		if t := strings.TrimSpace(e.Title); t != "" {
			out = append(out, t)
		}
		if len(out) >= maxEntryTitles {
			break
		}
	}
	return out
}

func snippets(ctx context.Context, posts ContentStore, sourceID int64) []string {
	if posts == nil || sourceID == 0 {
		return nil
	}
	texts, err := posts.RecentContent(ctx, sourceID, maxSnippets)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, textutil.Truncate(t, snippetChars))
		}
	}
	return out
}
