package cmd

import (
	"errors"
	"fmt"

	"techread/internal/ai"
	"techread/internal/digest"
	"techread/internal/model"
	"techread/internal/render"
	"techread/internal/storage"
	"techread/internal/timeutil"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <id>",
	Short: "Summarize a stored post with the configured LLM (cached by content hash)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := ai.ParseMode(modeFlag)
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

		llm, err := newSummarizer(cfg)
		if err != nil {
			return err
		}
		svc, err := newService(cfg, store, llm)
		if err != nil {
			return err
		}

		res, err := svc.Summarize(ctx, id, mode)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no such post: %d", id)
		}
		p := printer(cmd)
		if res.Post.ID != 0 {
			printPostHeader(p, res.Post)
		}
		switch {
		case errors.Is(err, digest.ErrTooShort):
			p.Warn("Not enough extracted text to summarize. Try `techread open %d`.", id)
			return err
		case err != nil:
			p.Failure("Summarization failed. Is the LLM at %s running?", cfg.LLM.BaseURL)
			return err
		}
		p.Linef("%s", res.Text)
		return nil
	},
}

func printPostHeader(p *render.Printer, post model.Post) {
	author := post.Author
	if author == "" {
		author = "-"
	}
	published := "-"
	if post.PublishedAt != "" {
		published = post.PublishedAt
		if t, err := timeutil.ParseISO(published); err == nil {
			published = t.Format("2006-01-02")
		}
	}
	p.Heading("%s", post.Title)
	p.Linef("  %s", post.URL)
	p.Linef("  author=%s  published=%s", author, published)
	p.Linef("  id=%d", post.ID)
	p.Linef("  ---")
}

func init() {
	summarizeCmd.Flags().String("mode", "takeaways", "summary mode: short|bullets|takeaways (aliases s|b|t)")
	rootCmd.AddCommand(summarizeCmd)
}
