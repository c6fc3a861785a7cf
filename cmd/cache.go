package cmd

import (
	"fmt"

	"techread/internal/redisclient"

	"github.com/spf13/cobra"
)

// cacheCmd groups page cache utilities.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Page cache utilities",
}

// cachePingCmd checks the configured cache backend.
var cachePingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the page cache backend (prints PONG for redis)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg.Cache.Backend != "redis" {
			fmt.Fprintf(cmd.OutOrStdout(), "file cache at %s\n", cfg.CacheDir)
			return nil
		}

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		res, err := redisclient.Ping(cmd.Context(), rdb)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePingCmd)
	rootCmd.AddCommand(cacheCmd)
}
