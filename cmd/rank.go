package cmd

import (
	"techread/internal/timeutil"

	"github.com/spf13/cobra"
)

var rankFilter postFilter

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score posts and show the best ones with the reason for each score",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		top, _ := cmd.Flags().GetInt("top")
		if top <= 0 {
			top = cfg.DefaultTopN
		}
		includeRead, _ := cmd.Flags().GetBool("include-read")

		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		svc, err := newService(cfg, store, nil)
		if err != nil {
			return err
		}
		f := rankFilter.filter(cmd, timeutil.NowUTC(), 0)
		f.IncludeRead = includeRead
		posts, err := svc.Ranked(ctx, f, top)
		if err != nil {
			return err
		}
		p := printer(cmd)
		if len(posts) == 0 {
			p.Warn("No posts to rank (try `techread fetch` first).")
			return nil
		}
		return p.Ranked(posts, cfg.Weights.WordsPerMinute)
	},
}

func init() {
	rankCmd.Flags().Int("top", 0, "number of posts to show (default: default_top_n)")
	rankCmd.Flags().Bool("include-read", false, "include posts already marked read")
	rankFilter.register(rankCmd)
	rootCmd.AddCommand(rankCmd)
}
