package cmd

import (
	"errors"
	"fmt"

	"techread/internal/model"
	"techread/internal/storage"

	"github.com/spf13/cobra"
)

var markCmd = &cobra.Command{
	Use:   "mark <id>",
	Short: "Update the read state of a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var state string
		for _, s := range []string{model.StateRead, model.StateSaved, model.StateSkip, model.StateUnread} {
			if on, _ := cmd.Flags().GetBool(s); on {
				state = s
			}
		}

		cfg := GetConfig()
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		err = store.SetReadState(ctx, id, state)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no such post: %d", id)
		}
		if err != nil {
			return err
		}
		printer(cmd).Success("Marked %d as %s.", id, state)
		return nil
	},
}

func init() {
	markCmd.Flags().Bool(model.StateRead, false, "mark as read")
	markCmd.Flags().Bool(model.StateSaved, false, "mark as saved")
	markCmd.Flags().Bool(model.StateSkip, false, "mark as skipped")
	markCmd.Flags().Bool(model.StateUnread, false, "mark as unread")
	markCmd.MarkFlagsOneRequired(model.StateRead, model.StateSaved, model.StateSkip, model.StateUnread)
	markCmd.MarkFlagsMutuallyExclusive(model.StateRead, model.StateSaved, model.StateSkip, model.StateUnread)
	rootCmd.AddCommand(markCmd)
}
