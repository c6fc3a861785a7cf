// Package worker runs the periodic jobs behind `techread serve`.
package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Worker runs until ctx is cancelled. A returned error stops the manager.
type Worker interface {
	Name() string
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

// Start blocks until ctx is cancelled or a worker fails; the first worker
// error cancels the others and is returned.
func (m *Manager) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range m.workers {
		w := w
		g.Go(func() error {
			slog.Info("worker: starting", "worker", w.Name())
			err := w.Start(gctx)
			if err != nil {
				slog.Error("worker: stopped with error", "worker", w.Name(), "err", err)
			}
			return err
		})
	}
	return g.Wait()
}

// tick calls run once immediately and then every interval until ctx is done.
func tick(ctx context.Context, interval time.Duration, run func(ctx context.Context)) {
	run(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run(ctx)
		}
	}
}
