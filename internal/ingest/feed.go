package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedMeta is the channel-level information of a feed.
type FeedMeta struct {
	Title    string
	Subtitle string
}

// FeedEntry is one item of a feed. Published is the raw date string as found
// in the feed (falling back to the updated date); it is normalized at ingest.
type FeedEntry struct {
	Title     string
	URL       string
	Author    string
	Published string
	Summary   string
}

// Feed is a parsed RSS/Atom document.
type Feed struct {
	Meta    FeedMeta
	Entries []FeedEntry
}

// FeedParser downloads and parses feeds.
type FeedParser struct {
	Client    *http.Client
	UserAgent string
}

func (p *FeedParser) parser() *gofeed.Parser {
	fp := gofeed.NewParser()
	if p != nil {
		if p.Client != nil {
			fp.Client = p.Client
		}
		if p.UserAgent != "" {
			fp.UserAgent = p.UserAgent
		}
	}
	return fp
}

// ParseURL fetches and parses the feed at url.
func (p *FeedParser) ParseURL(ctx context.Context, url string) (Feed, error) {
	f, err := p.parser().ParseURLWithContext(url, ctx)
	if err != nil {
		return Feed{}, fmt.Errorf("ingest: parse feed %s: %w", url, err)
	}
	return convertFeed(f), nil
}

// Parse parses a feed document from r.
func (p *FeedParser) Parse(r io.Reader) (Feed, error) {
	f, err := p.parser().Parse(r)
	if err != nil {
		return Feed{}, fmt.Errorf("ingest: parse feed: %w", err)
	}
	return convertFeed(f), nil
}

// ParseFeed fetches and parses url with a default client.
func ParseFeed(ctx context.Context, url string) (Feed, error) {
	return (&FeedParser{}).ParseURL(ctx, url)
}

// convertFeed trims fields, drops entries without a link and removes
// duplicate links, keeping the first occurrence.
func convertFeed(f *gofeed.Feed) Feed {
	out := Feed{Meta: FeedMeta{
		Title:    strings.TrimSpace(f.Title),
		Subtitle: strings.TrimSpace(f.Description),
	}}
	seen := make(map[string]bool, len(f.Items))
	for _, it := range f.Items {
		if it == nil {
			continue
		}
		link := strings.TrimSpace(it.Link)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = link
		}
		published := strings.TrimSpace(it.Published)
		if published == "" {
			published = strings.TrimSpace(it.Updated)
		}
		summary := it.Description
		if strings.TrimSpace(summary) == "" {
			summary = it.Content
		}
		out.Entries = append(out.Entries, FeedEntry{
			Title:     title,
			URL:       link,
			Author:    authorName(it),
			Published: published,
			Summary:   strings.TrimSpace(summary),
		})
	}
	return out
}

func authorName(it *gofeed.Item) string {
	if it.Author != nil && strings.TrimSpace(it.Author.Name) != "" {
		return strings.TrimSpace(it.Author.Name)
	}
	for _, a := range it.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	return ""
}
