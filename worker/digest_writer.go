package worker

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"techread/internal/digest"
	"techread/internal/model"
	"techread/internal/storage"
	"techread/internal/timeutil"
)

type digestBuilder interface {
	Build(ctx context.Context, opts digest.Options) ([]model.RankedPost, error)
}

// DigestWriter exports one markdown digest per title, typically one per day
// with the default "{.CurrentDate}" title. An existing file means the
// digest for that period was already written.
type DigestWriter struct {
	Service        digestBuilder
	Sources        digest.SourceLister
	OutputDir      string
	Title          string
	Top            int
	Minutes        int
	MinItems       int
	WindowHours    int
	WordsPerMinute float64
	AutoSummarize  bool
	Interval       time.Duration

	now func() time.Time
}

func (w *DigestWriter) Name() string { return "digest-writer" }

func (w *DigestWriter) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
	}
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return err
	}
	tick(ctx, w.Interval, func(ctx context.Context) { _, _ = w.RunOnce(ctx) })
	return nil
}

func (w *DigestWriter) clock() time.Time {
	if w.now != nil {
		return w.now().UTC()
	}
	return timeutil.NowUTC()
}

// RunOnce writes the digest for the current period unless it exists or has
// fewer than MinItems posts. It returns the written path, if any.
func (w *DigestWriter) RunOnce(ctx context.Context) (string, error) {
	now := w.clock()
	path := digest.ExportPath(w.OutputDir, w.Title, now)
	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		slog.Error("digest-writer: stat failed", "path", path, "err", err)
		return "", err
	}

	var f storage.Filter
	if w.WindowHours > 0 {
		f.Since = timeutil.FormatISO(now.Add(-time.Duration(w.WindowHours) * time.Hour))
	}
	items, err := w.Service.Build(ctx, digest.Options{
		Filter:        f,
		Top:           w.Top,
		Minutes:       w.Minutes,
		AutoSummarize: w.AutoSummarize,
	})
	if err != nil {
		slog.Error("digest-writer: build failed", "err", err)
		return "", err
	}
	if len(items) == 0 || len(items) < w.MinItems {
		slog.Info("digest-writer: not enough posts yet", "items", len(items), "min_items", w.MinItems)
		return "", nil
	}
	out, err := digest.Export(ctx, w.Sources, items, digest.ExportOptions{
		Dir:            w.OutputDir,
		Title:          w.Title,
		WordsPerMinute: w.WordsPerMinute,
		Now:            now,
	})
	if err != nil {
		slog.Error("digest-writer: export failed", "err", err)
		return "", err
	}
	slog.Info("digest-writer: wrote digest", "path", out, "items", len(items))
	return out, nil
}
