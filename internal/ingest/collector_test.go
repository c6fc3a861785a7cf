package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"techread/internal/model"
	"techread/internal/scrape"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	sources []model.Source
	posts   []model.Post
}

func (m *memStore) EnabledSources(context.Context) ([]model.Source, error) { return m.sources, nil }

func (m *memStore) PostURLExists(_ context.Context, url string) (bool, error) {
	for _, p := range m.posts {
		if p.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertPost(_ context.Context, p model.Post) (int64, error) {
	p.ID = int64(len(m.posts) + 1)
	m.posts = append(m.posts, p)
	return p.ID, nil
}

type stubFeeds map[string]Feed

func (s stubFeeds) ParseURL(_ context.Context, url string) (Feed, error) {
	f, ok := s[url]
	if !ok {
		return Feed{}, errors.New("boom")
	}
	return f, nil
}

type stubPages map[string]string

func (s stubPages) FetchHTML(_ context.Context, url string) (string, error) {
	html, ok := s[url]
	if !ok {
		return "", errors.New("status 500")
	}
	return html, nil
}

type stubRenderer struct{ text string }

func (r stubRenderer) Render(context.Context, string) (scrape.Page, error) {
	return scrape.Page{Text: r.text}, nil
}

func page(words int) string {
	return "<html><body><article><p>" + strings.Repeat("word ", words) + "</p></article></body></html>"
}

func fixedNow() time.Time { return time.Date(2024, 12, 29, 12, 0, 0, 0, time.UTC) }

func TestCollectorRun(t *testing.T) {
	store := &memStore{
		sources: []model.Source{
			{ID: 1, Name: "Good", URL: "https://good.example/feed"},
			{ID: 2, Name: "Broken", URL: "https://broken.example/feed"},
		},
		posts: []model.Post{{URL: "https://good.example/known"}},
	}
	feeds := stubFeeds{"https://good.example/feed": {Entries: []FeedEntry{
		{Title: "Known", URL: "https://good.example/known"},
		{Title: "Long", URL: "https://good.example/long", Published: "Sun, 29 Dec 2024 10:00:00 GMT", Author: "Ann"},
		{Title: "Short", URL: "https://good.example/short"},
		{Title: "Undated", URL: "https://good.example/undated", Published: "not a date"},
	}}}
	pages := stubPages{
		"https://good.example/long":    page(300),
		"https://good.example/short":   page(5),
		"https://good.example/undated": page(200),
	}
	logPath := filepath.Join(t.TempDir(), "invalid_posts.log")
	c := &Collector{Store: store, Feeds: feeds, Pages: pages, MinWordCount: 50, InvalidLog: logPath, now: fixedNow}

	st, err := c.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, Stats{Sources: 2, NewPosts: 2, Skipped: 1, Invalid: 1, Failed: 1}, st)

	require.Len(t, store.posts, 3)
	long := store.posts[1]
	assert.Equal(t, "https://good.example/long", long.URL)
	assert.Equal(t, "2024-12-29T10:00:00Z", long.PublishedAt)
	assert.Equal(t, "2024-12-29T12:00:00Z", long.FetchedAt)
	assert.Equal(t, 300, long.WordCount)
	assert.Equal(t, "Ann", long.Author)
	assert.Len(t, long.ContentHash, 64)
	assert.Equal(t, model.StateUnread, long.ReadState)

	assert.Equal(t, "2024-12-29T12:00:00Z", store.posts[2].PublishedAt, "unparsable date becomes fetch time")

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	line := string(logged)
	assert.Contains(t, line, "source_id=1\tsource=Good\turl=https://good.example/short\ttitle=Short\tword_count=5\treason=below_min_word_count(50)")
	assert.True(t, strings.HasPrefix(line, "2024-12-29T12:00:00Z\t"))
}

func TestCollectorLimitAndExtractFailure(t *testing.T) {
	store := &memStore{sources: []model.Source{{ID: 3, Name: "S", URL: "f"}}}
	feeds := stubFeeds{"f": {Entries: []FeedEntry{
		{Title: "A", URL: "https://x/a"},
		{Title: "B", URL: "https://x/b"},
	}}}
	logPath := filepath.Join(t.TempDir(), "invalid_posts.log")
	c := &Collector{Store: store, Feeds: feeds, Pages: stubPages{}, MinWordCount: 1, InvalidLog: logPath, now: fixedNow}

	st, err := c.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Invalid, "limit below one still takes one entry")
	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "reason=extract_failed(status 500)")
}

func TestCollectorFallbacks(t *testing.T) {
	store := &memStore{sources: []model.Source{{ID: 1, Name: "S", URL: "f"}}}
	feeds := stubFeeds{"f": {Entries: []FeedEntry{
		{Title: "Rendered", URL: "https://x/spa"},
		{Title: "Summary only", URL: "https://x/gone", Summary: "<p>just the feed summary</p>"},
	}}}

	c := &Collector{Store: store, Feeds: feeds, Pages: stubPages{"https://x/spa": page(3)}, now: fixedNow}
	c.Fallback = stubRenderer{text: strings.Repeat("rendered ", 120)}
	_, err := c.Run(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, store.posts, 2)
	assert.Equal(t, 120, store.posts[0].WordCount)

	// the renderer wins over the summary as well, so check the summary path without it
	store2 := &memStore{sources: store.sources}
	c2 := &Collector{Store: store2, Feeds: feeds, Pages: stubPages{}, now: fixedNow}
	_, err = c2.Run(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, store2.posts, 2)
	assert.Equal(t, "just the feed summary", store2.posts[1].ContentText)
	assert.Equal(t, 4, store2.posts[1].WordCount)
}

func TestCollectorNoSources(t *testing.T) {
	c := &Collector{Store: &memStore{}}
	_, err := c.Run(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNoSources)
}
