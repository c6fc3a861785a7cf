package worker

import (
	"context"
	"log/slog"
	"time"

	"techread/internal/storage"
	"techread/internal/timeutil"
)

type scorer interface {
	ScoreAll(ctx context.Context, f storage.Filter, onlyMissing bool) (int, error)
}

// Rescorer refreshes the scores of every post inside the window so
// freshness decays between fetches.
type Rescorer struct {
	Service     scorer
	WindowHours int
	Interval    time.Duration

	now func() time.Time
}

func (w *Rescorer) Name() string { return "rescorer" }

func (w *Rescorer) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = time.Hour
	}
	tick(ctx, w.Interval, func(ctx context.Context) { w.RunOnce(ctx) })
	return nil
}

// RunOnce rescores the window and returns how many posts were scored.
func (w *Rescorer) RunOnce(ctx context.Context) int {
	n, err := w.Service.ScoreAll(ctx, w.filter(), false)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("rescorer: scoring failed", "err", err)
		}
		return 0
	}
	slog.Info("rescorer: completed", "scored", n, "window_hours", w.WindowHours)
	return n
}

func (w *Rescorer) filter() storage.Filter {
	var f storage.Filter
	if w.WindowHours > 0 {
		now := timeutil.NowUTC()
		if w.now != nil {
			now = w.now().UTC()
		}
		f.Since = timeutil.FormatISO(now.Add(-time.Duration(w.WindowHours) * time.Hour))
	}
	return f
}
