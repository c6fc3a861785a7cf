package cmd

import (
	"log/slog"

	"techread/internal/ai"
	"techread/internal/digest"
	"techread/internal/timeutil"

	"github.com/spf13/cobra"
)

var digestFilter postFilter

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print a busy-reader digest: ranked titles with one-line takeaways",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		top, _ := cmd.Flags().GetInt("top")
		if top <= 0 {
			top = cfg.DefaultTopN
		}
		minutes, _ := cmd.Flags().GetInt("minutes")
		if !cmd.Flags().Changed("minutes") {
			minutes = cfg.Digest.Minutes
		}
		noSummarize, _ := cmd.Flags().GetBool("no-summarize")
		outDir, _ := cmd.Flags().GetString("out")
		if export, _ := cmd.Flags().GetBool("export"); export && outDir == "" {
			outDir = cfg.Digest.OutputDir
		}

		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		var llm ai.Summarizer
		if !noSummarize {
			client, err := newSummarizer(cfg)
			if err != nil {
				slog.Warn("digest: summaries disabled", "err", err)
			} else {
				llm = client
			}
		}
		svc, err := newService(cfg, store, llm)
		if err != nil {
			return err
		}

		now := timeutil.NowUTC()
		items, err := svc.Build(ctx, digest.Options{
			Filter:        digestFilter.filter(cmd, now, cfg.Digest.WindowHours),
			Top:           top,
			Minutes:       minutes,
			AutoSummarize: llm != nil,
		})
		if err != nil {
			return err
		}
		p := printer(cmd)
		if len(items) == 0 {
			p.Warn("Nothing to read (try `techread fetch`, or --all).")
			return nil
		}
		wpm := cfg.Weights.WordsPerMinute
		p.Digest(items, wpm)
		p.Linef("About %d minutes of reading.", digest.TotalMinutes(items, wpm))

		if outDir == "" {
			return nil
		}
		path, err := digest.Export(ctx, store, items, digest.ExportOptions{
			Dir:            outDir,
			Title:          cfg.Digest.Title,
			WordsPerMinute: wpm,
			Now:            now,
		})
		if err != nil {
			return err
		}
		p.Success("Wrote %s", path)
		return nil
	},
}

func init() {
	digestCmd.Flags().Int("top", 0, "number of items (default: default_top_n)")
	digestCmd.Flags().Int("minutes", 0, "reading budget in minutes, 0 for none (default: digest.minutes)")
	digestCmd.Flags().Bool("no-summarize", false, "skip one-line LLM summaries")
	digestCmd.Flags().String("out", "", "also write the digest as markdown into this directory")
	digestCmd.Flags().Bool("export", false, "also write the digest as markdown into digest.output_dir")
	digestFilter.register(digestCmd)
	rootCmd.AddCommand(digestCmd)
}
