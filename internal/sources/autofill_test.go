package sources

import (
	"context"
	"errors"
	"strings"
	"testing"

	"techread/internal/ai"
	"techread/internal/ingest"
)

type fakeFeeds struct {
	feed ingest.Feed
	err  error
}

func (f fakeFeeds) ParseURL(context.Context, string) (ingest.Feed, error) { return f.feed, f.err }

type fakePosts []string

func (p fakePosts) RecentContent(_ context.Context, _ int64, n int) ([]string, error) {
	if n < len(p) {
		return p[:n], nil
	}
	return p, nil
}

type fakeTagger struct {
	out  string
	err  error
	seen *ai.TagInput
}

func (f fakeTagger) GenerateTags(_ context.Context, in ai.TagInput) (string, error) {
	if f.seen != nil {
		*f.seen = in
	}
	return f.out, f.err
}

func feedWithEntries(title string, n int) ingest.Feed {
	f := ingest.Feed{Meta: ingest.FeedMeta{Title: title, Subtitle: "sub"}}
	for i := 0; i < n; i++ {
		f.Entries = append(f.Entries, ingest.FeedEntry{Title: "entry", URL: "u"})
	}
	return f
}

func TestAutofillFillsBoth(t *testing.T) {
	var seen ai.TagInput
	deps := Deps{
		Feeds:  fakeFeeds{feed: feedWithEntries("Go Blog", 12)},
		Posts:  fakePosts{strings.Repeat("x", 1000), "  ", "b", "c", "d"},
		Tagger: fakeTagger{out: "go,programming", seen: &seen},
	}
	res := Autofill(context.Background(), deps, AutofillInput{SourceID: 7, URL: "https://go.dev/blog/feed.atom", Name: "https://go.dev/blog/feed.atom"})
	if res.Name == nil || *res.Name != "Go Blog" {
		t.Fatalf("Name = %v", res.Name)
	}
	if res.Tags == nil || *res.Tags != "go,programming" {
		t.Fatalf("Tags = %v", res.Tags)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings: %v", res.Warnings)
	}
	if len(seen.EntryTitles) != 10 {
		t.Errorf("entry titles = %d, want 10", len(seen.EntryTitles))
	}
	if len(seen.EntrySnippets) != 3 || len(seen.EntrySnippets[0]) != 800 {
		t.Errorf("snippets = %d (first %d chars)", len(seen.EntrySnippets), len(seen.EntrySnippets[0]))
	}
	if seen.FeedSubtitle != "sub" {
		t.Errorf("subtitle = %q", seen.FeedSubtitle)
	}
}

func TestAutofillNothingWanted(t *testing.T) {
	deps := Deps{Feeds: fakeFeeds{err: errors.New("must not be called")}}
	res := Autofill(context.Background(), deps, AutofillInput{URL: "u", Name: "Named", Tags: "a,b"})
	if res.Changed() || len(res.Warnings) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAutofillFeedFailure(t *testing.T) {
	deps := Deps{Feeds: fakeFeeds{err: errors.New("404")}}
	res := Autofill(context.Background(), deps, AutofillInput{URL: "https://x/feed"})
	if res.Changed() {
		t.Fatal("expected no changes")
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "failed to parse feed https://x/feed") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestAutofillTagWarnings(t *testing.T) {
	in := AutofillInput{URL: "https://x.dev/feed", Name: "Kept"}

	res := Autofill(context.Background(), Deps{Feeds: fakeFeeds{feed: feedWithEntries("", 1)}, Tagger: fakeTagger{err: errors.New("down")}}, in)
	if res.Name != nil || res.Tags != nil {
		t.Fatalf("unexpected changes %+v", res)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "failed to generate tags") {
		t.Fatalf("warnings = %v", res.Warnings)
	}

	res = Autofill(context.Background(), Deps{Feeds: fakeFeeds{feed: feedWithEntries("", 1)}, Tagger: fakeTagger{}}, in)
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "no tags generated") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestAutofillForceUnchanged(t *testing.T) {
	deps := Deps{Feeds: fakeFeeds{feed: feedWithEntries("Same", 1)}, Tagger: fakeTagger{out: "a,b"}}
	res := Autofill(context.Background(), deps, AutofillInput{URL: "u", Name: "Same", Tags: "a,b", Force: true})
	if res.Changed() {
		t.Fatalf("identical values should not be reported: %+v", res)
	}
}

func TestInferName(t *testing.T) {
	cases := []struct {
		title, url, want string
	}{
		{"  Title ", "https://a.example/feed", "Title"},
		{"", "https://a.example/feed", "a.example"},
		{"", "feeds/local.xml", "feeds/local.xml"},
		{"", "", ""},
	}
	for _, tc := range cases {
		if got := InferName(ingest.FeedMeta{Title: tc.title}, tc.url); got != tc.want {
			t.Errorf("InferName(%q, %q) = %q, want %q", tc.title, tc.url, got, tc.want)
		}
	}
}
