package cmd

import (
	"sort"

	"techread/internal/markdown"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <markdown_path>",
	Short: "Show the frontmatter and linked posts of an exported digest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := markdown.ParseFile(args[0])
		if err != nil {
			return err
		}
		p := printer(cmd)
		p.Heading("%s", doc.String("title"))

		keys := make([]string, 0, len(doc.Frontmatter))
		for k := range doc.Frontmatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p.Linef("  %s: %v", k, doc.Frontmatter[k])
		}
		p.Linef("  body bytes: %d", len(doc.Body))

		links := doc.Links()
		p.Linef("")
		p.Info("%d linked posts", len(links))
		for i, l := range links {
			p.Linef("%d. %s\n   %s", i+1, l.Title, l.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
