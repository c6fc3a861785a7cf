package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"techread/internal/model"
	"techread/internal/scrape"
	"techread/internal/textutil"
	"techread/internal/timeutil"
)

// ErrNoSources is returned by Run when no source is enabled.
var ErrNoSources = errors.New("ingest: no enabled sources")

// shortWords is the extracted length below which the rendering fallback is tried.
const shortWords = 100

// PostStore is the subset of storage the collector writes to.
type PostStore interface {
	EnabledSources(ctx context.Context) ([]model.Source, error)
	PostURLExists(ctx context.Context, url string) (bool, error)
	InsertPost(ctx context.Context, p model.Post) (int64, error)
}

type feedSource interface {
	ParseURL(ctx context.Context, url string) (Feed, error)
}

type pageFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Renderer produces page text for pages plain extraction cannot read.
type Renderer interface {
	Render(ctx context.Context, url string) (scrape.Page, error)
}

// Stats summarizes one collection run.
type Stats struct {
	Sources  int
	NewPosts int
	Skipped  int // already stored
	Invalid  int // below min word count, see invalid_posts.log
	Failed   int // feeds that could not be parsed
}

// Collector pulls entries from every enabled source and stores new posts.
type Collector struct {
	Store        PostStore
	Feeds        feedSource
	Pages        pageFetcher
	Fallback     Renderer // optional
	MinWordCount int
	// InvalidLog is the path of the rejected-posts log. Empty disables it.
	InvalidLog string
	// Progress, when set, is called before each source is fetched.
	Progress func(src model.Source)

	now func() time.Time
	mu  sync.Mutex
}

// InvalidLogPath is the rejected-posts log inside cacheDir.
func InvalidLogPath(cacheDir string) string {
	return filepath.Join(cacheDir, "invalid_posts.log")
}

func (c *Collector) clock() time.Time {
	if c.now != nil {
		return c.now().UTC()
	}
	return timeutil.NowUTC()
}

// Run fetches up to limitPerSource entries (at least one) from each enabled source.
// A failing feed or page is logged and skipped; only storage errors abort the run.
func (c *Collector) Run(ctx context.Context, limitPerSource int) (Stats, error) {
	var st Stats
	sources, err := c.Store.EnabledSources(ctx)
	if err != nil {
		return st, err
	}
	if len(sources) == 0 {
		return st, ErrNoSources
	}
	if limitPerSource < 1 {
		limitPerSource = 1
	}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Sources++
		if c.Progress != nil {
			c.Progress(src)
		}
		feed, err := c.Feeds.ParseURL(ctx, src.URL)
		if err != nil {
			slog.Error("fetch: failed to parse feed", "source", src.Name, "url", src.URL, "err", err)
			st.Failed++
			continue
		}
		entries := feed.Entries
		if len(entries) > limitPerSource {
			entries = entries[:limitPerSource]
		}
		for _, e := range entries {
			stored, err := c.collectEntry(ctx, src, e)
			if err != nil {
				return st, err
			}
			switch stored {
			case outcomeNew:
				st.NewPosts++
			case outcomeKnown:
				st.Skipped++
			case outcomeInvalid:
				st.Invalid++
			}
		}
	}
	slog.Info("fetch: done", "sources", st.Sources, "new", st.NewPosts, "skipped", st.Skipped, "invalid", st.Invalid, "failed", st.Failed)
	return st, nil
}

type outcome int

const (
	outcomeNew outcome = iota
	outcomeKnown
	outcomeInvalid
)

func (c *Collector) collectEntry(ctx context.Context, src model.Source, e FeedEntry) (outcome, error) {
	if e.URL == "" {
		return outcomeKnown, nil
	}
	exists, err := c.Store.PostURLExists(ctx, e.URL)
	if err != nil {
		return 0, err
	}
	if exists {
		return outcomeKnown, nil
	}

	now := c.clock()
	ext, extractErr := c.extract(ctx, e)
	if ext.WordCount < c.MinWordCount {
		reason := fmt.Sprintf("below_min_word_count(%d)", c.MinWordCount)
		if extractErr != nil {
			reason = fmt.Sprintf("extract_failed(%v)", extractErr)
		}
		c.logInvalid(now, src, e, ext.WordCount, reason)
		return outcomeInvalid, nil
	}

	hash := ""
	if ext.Text != "" {
		hash = textutil.StableHash(ext.Text)
	}
	_, err = c.Store.InsertPost(ctx, model.Post{
		SourceID:    src.ID,
		Title:       e.Title,
		URL:         e.URL,
		Author:      e.Author,
		PublishedAt: timeutil.ParseOrNow(e.Published, now),
		FetchedAt:   timeutil.FormatISO(now),
		ContentText: ext.Text,
		ContentHash: hash,
		WordCount:   ext.WordCount,
		ReadState:   model.StateUnread,
	})
	if err != nil {
		return 0, err
	}
	return outcomeNew, nil
}

// extract fetches and extracts the page, trying the rendering fallback for
// short results and the feed summary last. The returned error is the local
// fetch/extract failure, if any.
func (c *Collector) extract(ctx context.Context, e FeedEntry) (Extracted, error) {
	var ext Extracted
	html, err := c.Pages.FetchHTML(ctx, e.URL)
	if err == nil {
		ext, err = Extract(html, e.URL)
	}
	if err != nil {
		slog.Warn("fetch: could not fetch/extract", "url", e.URL, "err", err)
	}

	if ext.WordCount < shortWords && c.Fallback != nil {
		page, rerr := c.Fallback.Render(ctx, e.URL)
		if rerr != nil {
			slog.Warn("fetch: render fallback failed", "url", e.URL, "err", rerr)
		} else if n := textutil.WordCount(page.Text); n > ext.WordCount {
			ext = Extracted{Text: page.Text, WordCount: n}
			err = nil
		}
	}

	if ext.Text == "" && strings.TrimSpace(e.Summary) != "" {
		if s := ExtractSummary(e.Summary); s.WordCount > 0 {
			ext = s
		}
	}
	return ext, err
}

func (c *Collector) logInvalid(now time.Time, src model.Source, e FeedEntry, words int, reason string) {
	if c.InvalidLog == "" {
		return
	}
	title := strings.TrimSpace(strings.ReplaceAll(e.Title, "\n", " "))
	line := fmt.Sprintf("%s\tsource_id=%d\tsource=%s\turl=%s\ttitle=%s\tword_count=%d\treason=%s\n",
		timeutil.FormatISO(now), src.ID, src.Name, e.URL, title, words, reason)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.InvalidLog), 0o755); err != nil {
		slog.Warn("fetch: invalid log", "err", err)
		return
	}
	f, err := os.OpenFile(c.InvalidLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("fetch: invalid log", "err", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		slog.Warn("fetch: invalid log", "err", err)
	}
}
