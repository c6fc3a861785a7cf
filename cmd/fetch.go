package cmd

import (
	"errors"

	"techread/internal/ingest"
	"techread/internal/model"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch enabled feeds and store new posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		limit, _ := cmd.Flags().GetInt("limit-per-source")
		if !cmd.Flags().Changed("limit-per-source") {
			limit = cfg.Fetch.LimitPerSource
		}

		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		c, closeCache, err := newCollector(cfg, store)
		if err != nil {
			return err
		}
		defer closeCache()

		p := printer(cmd)
		c.Progress = func(src model.Source) { p.Info("Fetching %s", src.Name) }
		st, err := c.Run(ctx, limit)
		if errors.Is(err, ingest.ErrNoSources) {
			p.Warn("No enabled sources. Add one with `techread sources add <url>`.")
			return nil
		}
		if err != nil {
			return err
		}
		p.Success("Fetched %d sources: %d new posts, %d already known, %d below min word count, %d failed feeds",
			st.Sources, st.NewPosts, st.Skipped, st.Invalid, st.Failed)
		if st.Invalid > 0 {
			p.Linef("Rejected posts are listed in %s", c.InvalidLog)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("limit-per-source", 50, "maximum entries to read from each feed")
	rootCmd.AddCommand(fetchCmd)
}
