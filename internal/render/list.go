package render

import (
	"fmt"

	"techread/internal/ingest"
	"techread/internal/model"
	"techread/internal/rank"
)

// Digest prints the busy-reader list: "#i [Nm] title", the one-liner when
// present, then the id and url.
func (p *Printer) Digest(items []model.RankedPost, wpm float64) {
	p.Heading("Today's techread digest")
	for i, it := range items {
		mins := rank.EstimatedMinutes(it.WordCount, wpm)
		fmt.Fprintf(p.out, "%s %s\n", p.bold(fmt.Sprintf("#%d [%dm]", i+1, mins)), it.Title)
		if it.OneLiner != "" {
			fmt.Fprintf(p.out, "  • %s\n", it.OneLiner)
		}
		fmt.Fprintf(p.out, "  id=%d  %s\n\n", it.ID, it.URL)
	}
}

// FeedEntries prints the first entries of a feed for `sources test`.
func (p *Printer) FeedEntries(url string, entries []ingest.FeedEntry) {
	p.Heading("Top entries for %s", url)
	for i, e := range entries {
		fmt.Fprintf(p.out, "%d. %s\n   %s\n", i+1, e.Title, e.URL)
		if e.Published != "" {
			fmt.Fprintf(p.out, "   published: %s\n", e.Published)
		}
		fmt.Fprintln(p.out)
	}
}
