package digest

import (
	"context"
	"time"

	"techread/internal/model"
	"techread/internal/render"
)

// SourceLister lists sources for display names; *storage.Store satisfies it.
type SourceLister interface {
	ListSources(ctx context.Context) ([]model.Source, error)
}

// SourceNames maps source ids to their display names.
func SourceNames(ctx context.Context, l SourceLister) (map[int64]string, error) {
	sources, err := l.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}
	return names, nil
}

// ExportOptions controls where and how a digest is written.
type ExportOptions struct {
	Dir            string
	Title          string // may contain {.CurrentDate} style placeholders
	WordsPerMinute float64
	Now            time.Time
}

// Export writes items as a markdown digest and returns the file path.
func Export(ctx context.Context, l SourceLister, items []model.RankedPost, opts ExportOptions) (string, error) {
	names, err := SourceNames(ctx, l)
	if err != nil {
		return "", err
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	doc := render.NewDigestDoc(opts.Title, items, names, opts.WordsPerMinute, now)
	return render.WriteMarkdown(opts.Dir, doc)
}

// ExportPath is the file Export would write for title at now.
func ExportPath(dir, title string, now time.Time) string {
	return render.MarkdownPath(dir, render.Slugify(render.ExpandVars(title, now)))
}
