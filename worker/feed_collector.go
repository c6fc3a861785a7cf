package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"techread/internal/ingest"
)

type feedRunner interface {
	Run(ctx context.Context, limitPerSource int) (ingest.Stats, error)
}

// FeedCollector polls every enabled source and stores new posts.
type FeedCollector struct {
	Collector      feedRunner
	LimitPerSource int
	Interval       time.Duration
	// OnDone, when set, runs after each collection that stored new posts.
	OnDone func(ctx context.Context, st ingest.Stats)
}

func (w *FeedCollector) Name() string { return "feed-collector" }

func (w *FeedCollector) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = time.Hour
	}
	if w.LimitPerSource <= 0 {
		w.LimitPerSource = 50
	}
	tick(ctx, w.Interval, w.runOnce)
	return nil
}

func (w *FeedCollector) runOnce(ctx context.Context) {
	st, err := w.Collector.Run(ctx, w.LimitPerSource)
	switch {
	case errors.Is(err, ingest.ErrNoSources):
		slog.Warn("feed-collector: no enabled sources; add one with `techread sources add <url>`")
		return
	case ctx.Err() != nil:
		return
	case err != nil:
		slog.Error("feed-collector: run failed", "err", err)
		return
	}
	slog.Info("feed-collector: completed", "sources", st.Sources, "new", st.NewPosts, "invalid", st.Invalid, "failed", st.Failed)
	if st.NewPosts > 0 && w.OnDone != nil {
		w.OnDone(ctx, st)
	}
}
