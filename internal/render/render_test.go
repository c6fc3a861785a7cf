package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"techread/internal/ingest"
	"techread/internal/markdown"
	"techread/internal/model"
)

var now = time.Date(2024, 12, 29, 12, 30, 0, 0, time.UTC)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewPrinter(&buf).WithColor(false), &buf
}

func TestExpandVars(t *testing.T) {
	got := ExpandVars("digest {.CurrentDate} {.CurrentTime} {.Weekday}", now)
	if got != "digest 2024-12-29 12:30 Sunday" {
		t.Errorf("ExpandVars = %q", got)
	}
	if ExpandVars("  ", now) != "  " {
		t.Error("blank input should be returned unchanged")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"techread digest 2024-12-29": "techread-digest-2024-12-29",
		"  Hello, World!  ":          "hello-world",
		"---":                        "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWhy(t *testing.T) {
	got := Why(`{"freshness":0.9726,"topic_hits":2,"length_penalty":0.012}`)
	if got != "fresh 0.9726 | topic 2 | len -0.012" {
		t.Errorf("Why = %q", got)
	}
	if Why("") != "" || Why("{bad") != "" {
		t.Error("invalid breakdown should yield empty reason")
	}
}

func TestSourcesTable(t *testing.T) {
	p, buf := newTestPrinter()
	err := p.Sources([]model.Source{
		{ID: 1, Name: "Go Blog", URL: "https://go.dev/blog/feed.atom", Weight: 1.5, Tags: "go", Enabled: true},
		{ID: 2, Name: "Off", URL: "https://off.example/feed", Weight: 1},
	})
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sources", "Go Blog", "1.50", "https://go.dev/blog/feed.atom", "yes", "1.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRankedTable(t *testing.T) {
	p, buf := newTestPrinter()
	err := p.Ranked([]model.RankedPost{
		{Post: model.Post{ID: 7, Title: "WAL deep dive", WordCount: 660, ReadState: "saved"}, Score: 1.23456, BreakdownJSON: `{"freshness":0.5,"topic_hits":1,"length_penalty":0.079}`},
		{Post: model.Post{ID: 8, Title: "Empty"}, Score: 0.1},
	}, 220)
	if err != nil {
		t.Fatalf("Ranked: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"WAL deep dive", "1.235", "fresh 0.5 | topic 1 | len -0.079", "0.100"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDigestList(t *testing.T) {
	p, buf := newTestPrinter()
	p.Digest([]model.RankedPost{
		{Post: model.Post{ID: 3, Title: "First", URL: "https://x/1", WordCount: 440}, OneLiner: "Tight summary."},
		{Post: model.Post{ID: 4, Title: "Second", URL: "https://x/2"}},
	}, 220)
	want := "Today's techread digest\n" +
		"#1 [2m] First\n  • Tight summary.\n  id=3  https://x/1\n\n" +
		"#2 [1m] Second\n  id=4  https://x/2\n\n"
	if buf.String() != want {
		t.Errorf("Digest output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestFeedEntries(t *testing.T) {
	p, buf := newTestPrinter()
	p.FeedEntries("https://x/feed", []ingest.FeedEntry{{Title: "A", URL: "https://x/a", Published: "2024-12-29"}, {Title: "B", URL: "https://x/b"}})
	out := buf.String()
	if !strings.Contains(out, "1. A\n   https://x/a\n   published: 2024-12-29\n") || !strings.Contains(out, "2. B\n   https://x/b\n\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	items := []model.RankedPost{
		{Post: model.Post{ID: 1, SourceID: 9, Title: "Understanding WAL", URL: "https://example.com/wal", WordCount: 880}, Score: 1.2, OneLiner: "Logs first, pages later."},
		{Post: model.Post{ID: 2, SourceID: 10, Title: "Plain", URL: "https://example.com/plain"}, Score: 0.5},
	}
	doc := NewDigestDoc("techread digest {.CurrentDate}", items, map[int64]string{9: "Go Blog"}, 220, now)
	if doc.Slug != "techread-digest-2024-12-29" || doc.Minutes != 5 {
		t.Fatalf("doc = %+v", doc)
	}

	path, err := WriteMarkdown(filepath.Join(t.TempDir(), "out"), doc)
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	if filepath.Base(path) != "techread-digest-2024-12-29.md" {
		t.Errorf("path = %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "> Logs first, pages later.") || !strings.Contains(string(raw), "4 min · score 1.200 · Go Blog") {
		t.Errorf("unexpected markdown:\n%s", raw)
	}

	parsed, err := markdown.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if parsed.String("title") != "techread digest 2024-12-29" {
		t.Errorf("title = %q", parsed.String("title"))
	}
	if parsed.String("slug") != doc.Slug {
		t.Errorf("slug = %q", parsed.String("slug"))
	}
	links := parsed.Links()
	if len(links) != 2 || links[1].URL != "https://example.com/plain" {
		t.Errorf("links = %+v", links)
	}
}
