package cmd

import (
	"errors"
	"fmt"

	"techread/internal/storage"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a post in the default browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		cfg := GetConfig()
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		post, err := store.GetPost(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no such post: %d", id)
		}
		if err != nil {
			return err
		}
		browser.Stdout = cmd.ErrOrStderr()
		return browser.OpenURL(post.URL)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
