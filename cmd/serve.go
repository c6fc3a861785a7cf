package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"techread/internal/ai"
	"techread/internal/ingest"
	"techread/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the periodic collector, rescoring and optional digest export",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		interval, err := duration("serve.interval", cfg.Serve.Interval)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		collector, closeCache, err := newCollector(cfg, store)
		if err != nil {
			return err
		}
		defer closeCache()

		var llm ai.Summarizer
		if client, err := newSummarizer(cfg); err != nil {
			slog.Warn("serve: summaries disabled", "err", err)
		} else {
			llm = client
		}
		svc, err := newService(cfg, store, llm)
		if err != nil {
			return err
		}

		rescorer := &worker.Rescorer{Service: svc, WindowHours: cfg.Digest.WindowHours, Interval: interval}
		ws := []worker.Worker{
			&worker.FeedCollector{
				Collector:      collector,
				LimitPerSource: cfg.Fetch.LimitPerSource,
				Interval:       interval,
				OnDone:         func(ctx context.Context, _ ingest.Stats) { rescorer.RunOnce(ctx) },
			},
			rescorer,
		}
		if cfg.Serve.WriteDigest {
			slog.Info("serve: writing digests", "dir", cfg.Digest.OutputDir)
			ws = append(ws, &worker.DigestWriter{
				Service:        svc,
				Sources:        store,
				OutputDir:      cfg.Digest.OutputDir,
				Title:          cfg.Digest.Title,
				Top:            cfg.DefaultTopN,
				Minutes:        cfg.Digest.Minutes,
				MinItems:       cfg.Digest.MinItems,
				WindowHours:    cfg.Digest.WindowHours,
				WordsPerMinute: cfg.Weights.WordsPerMinute,
				AutoSummarize:  llm != nil,
				Interval:       interval,
			})
		}

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		go func() {
			select {
			case s := <-sigc:
				slog.Info("serve: received signal, shutting down", "signal", s.String())
				cancel()
			case <-ctx.Done():
			}
		}()

		slog.Info("serve: starting", "interval", interval.String(), "db", cfg.DBPath)
		return worker.NewManager(ws...).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
