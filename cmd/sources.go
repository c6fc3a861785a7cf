package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"techread/internal/config"
	"techread/internal/model"
	"techread/internal/render"
	"techread/internal/sources"
	"techread/internal/storage"

	"github.com/spf13/cobra"
)

// sourcesCmd groups feed source management.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage RSS/Atom feed sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx, GetConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.ListSources(ctx)
		if err != nil {
			return err
		}
		p := printer(cmd)
		if len(list) == 0 {
			p.Warn("No sources yet. Add one with `techread sources add <url>`.")
			return nil
		}
		return p.Sources(list)
	},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a feed; missing name and tags are filled from the feed and the LLM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := strings.TrimSpace(args[0])
		name, _ := cmd.Flags().GetString("name")
		weight, _ := cmd.Flags().GetFloat64("weight")
		tags, _ := cmd.Flags().GetString("tags")

		cfg := GetConfig()
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		p := printer(cmd)
		src := model.Source{Name: name, URL: url, Weight: weight, Tags: tags, Enabled: true}
		if src.Name == "" {
			src.Name = url
		}
		if name == "" || tags == "" {
			deps, err := autofillDeps(cfg, store)
			if err != nil {
				return err
			}
			res := sources.Autofill(ctx, deps, sources.AutofillInput{URL: url, Name: src.Name, Tags: tags})
			warn(p, res.Warnings)
			if res.Name != nil {
				src.Name = *res.Name
			}
			if res.Tags != nil {
				src.Tags = *res.Tags
			}
		}
		if _, err := store.AddSource(ctx, src); err != nil {
			p.Failure("Could not add source: %v", err)
			return err
		}
		p.Success("Added source: %s", src.Name)
		return nil
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a source; its posts are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSource(cmd, args[0], "Removed", func(ctx context.Context, s *storage.Store, id int64) error {
			return s.RemoveSource(ctx, id)
		})
	},
}

var sourcesEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSource(cmd, args[0], "Enabled", func(ctx context.Context, s *storage.Store, id int64) error {
			return s.SetSourceEnabled(ctx, id, true)
		})
	},
}

var sourcesDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSource(cmd, args[0], "Disabled", func(ctx context.Context, s *storage.Store, id int64) error {
			return s.SetSourceEnabled(ctx, id, false)
		})
	},
}

// withSource runs op against the source id in arg and reports the outcome.
func withSource(cmd *cobra.Command, arg, verb string, op func(context.Context, *storage.Store, int64) error) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := openStore(ctx, GetConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := op(ctx, store, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no such source: %d", id)
		}
		return err
	}
	printer(cmd).Success("%s source %d.", verb, id)
	return nil
}

var sourcesPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete posts below min_word_count, with their scores and summaries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, _ := cmd.Flags().GetInt64Slice("source")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg := GetConfig()
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		p := printer(cmd)
		if dryRun {
			n, err := store.CountBelowWordCount(ctx, cfg.MinWordCount, ids)
			if err != nil {
				return err
			}
			p.Linef("Invalid posts found: %d", n)
			return nil
		}
		n, err := store.PurgeBelowWordCount(ctx, cfg.MinWordCount, ids)
		if err != nil {
			return err
		}
		p.Success("Purged posts: %d", n)
		return nil
	},
}

var sourcesTestCmd = &cobra.Command{
	Use:   "test <url>",
	Short: "Parse a feed and show its first entries without storing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := strings.TrimSpace(args[0])
		feeds, err := newFeedParser(GetConfig())
		if err != nil {
			return err
		}
		p := printer(cmd)
		feed, err := feeds.ParseURL(cmd.Context(), url)
		if err != nil {
			p.Failure("Failed: %v", err)
			return err
		}
		if len(feed.Entries) == 0 {
			p.Warn("No entries found.")
			return nil
		}
		entries := feed.Entries
		if len(entries) > 10 {
			entries = entries[:10]
		}
		p.FeedEntries(url, entries)
		return nil
	},
}

var sourcesAutofillCmd = &cobra.Command{
	Use:   "autofill",
	Short: "Fill missing source names and tags from feed metadata and the LLM",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("id")
		force, _ := cmd.Flags().GetBool("force")

		cfg := GetConfig()
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		var list []model.Source
		if id > 0 {
			src, err := store.GetSource(ctx, id)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no such source: %d", id)
			}
			if err != nil {
				return err
			}
			list = []model.Source{src}
		} else if list, err = store.ListSources(ctx); err != nil {
			return err
		}
		p := printer(cmd)
		if len(list) == 0 {
			p.Warn("No sources found.")
			return nil
		}

		deps, err := autofillDeps(cfg, store)
		if err != nil {
			return err
		}
		updated := 0
		for _, src := range list {
			res := sources.Autofill(ctx, deps, sources.AutofillInput{
				SourceID: src.ID,
				URL:      src.URL,
				Name:     src.Name,
				Tags:     src.Tags,
				Force:    force,
			})
			warn(p, res.Warnings)
			if !res.Changed() {
				continue
			}
			if err := store.UpdateSourceMeta(ctx, src.ID, res.Name, res.Tags); err != nil {
				return err
			}
			updated++
		}
		p.Success("Updated sources: %d", updated)
		return nil
	},
}

// autofillDeps wires feed parsing, stored content and the tagger. A
// misconfigured LLM only disables tagging.
func autofillDeps(cfg config.Config, store *storage.Store) (sources.Deps, error) {
	feeds, err := newFeedParser(cfg)
	if err != nil {
		return sources.Deps{}, err
	}
	deps := sources.Deps{Feeds: feeds, Posts: store}
	llm, err := newSummarizer(cfg)
	if err != nil {
		slog.Warn("sources: tagging disabled", "err", err)
		return deps, nil
	}
	deps.Tagger = llm
	return deps, nil
}

func warn(p *render.Printer, warnings []string) {
	for _, w := range warnings {
		p.Warn("%s", w)
	}
}

func init() {
	sourcesAddCmd.Flags().String("name", "", "display name (default: feed title)")
	sourcesAddCmd.Flags().Float64("weight", 1.0, "source weight, a ranking prior")
	sourcesAddCmd.Flags().String("tags", "", "comma separated tags (default: generated)")
	sourcesPurgeCmd.Flags().Int64SliceP("source", "s", nil, "only purge posts of these source ids")
	sourcesPurgeCmd.Flags().Bool("dry-run", false, "show the count without deleting")
	sourcesAutofillCmd.Flags().Int64("id", 0, "only update this source id")
	sourcesAutofillCmd.Flags().Bool("force", false, "overwrite existing names and tags")

	sourcesCmd.AddCommand(sourcesListCmd, sourcesAddCmd, sourcesRemoveCmd, sourcesEnableCmd,
		sourcesDisableCmd, sourcesPurgeCmd, sourcesTestCmd, sourcesAutofillCmd)
	rootCmd.AddCommand(sourcesCmd)
}
