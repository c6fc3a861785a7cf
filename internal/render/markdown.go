package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"techread/internal/model"
	"techread/internal/rank"

	"gopkg.in/yaml.v3"
)

// DigestItem is one entry of an exported digest.
type DigestItem struct {
	ID       int64
	Title    string
	URL      string
	Source   string
	Score    float64
	Minutes  int
	OneLiner string
}

// DigestDoc is an exported digest. Title may contain ExpandVars placeholders.
type DigestDoc struct {
	Title    string
	Slug     string
	Datetime string
	Tags     []string
	Minutes  int
	Items    []DigestItem
}

type frontmatter struct {
	Title    string   `yaml:"title"`
	Slug     string   `yaml:"slug"`
	Datetime string   `yaml:"datetime"`
	Tags     []string `yaml:"tags,omitempty"`
}

//go:embed digest.tmpl
var digestTpl string

var compiled = template.Must(template.New("digest").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(digestTpl))

// NewDigestDoc builds the export document for items. The slug is derived
// from the expanded title.
func NewDigestDoc(title string, items []model.RankedPost, sourceNames map[int64]string, wpm float64, now time.Time) DigestDoc {
	title = ExpandVars(title, now)
	doc := DigestDoc{
		Title:    title,
		Slug:     Slugify(title),
		Datetime: now.UTC().Format(time.RFC3339),
	}
	for _, it := range items {
		m := rank.EstimatedMinutes(it.WordCount, wpm)
		doc.Minutes += m
		doc.Items = append(doc.Items, DigestItem{
			ID:       it.ID,
			Title:    it.Title,
			URL:      it.URL,
			Source:   sourceNames[it.SourceID],
			Score:    it.Score,
			Minutes:  m,
			OneLiner: it.OneLiner,
		})
	}
	return doc
}

// Markdown renders the digest with YAML frontmatter.
func Markdown(d DigestDoc) (string, error) {
	fm, err := yaml.Marshal(frontmatter{Title: d.Title, Slug: d.Slug, Datetime: d.Datetime, Tags: d.Tags})
	if err != nil {
		return "", fmt.Errorf("render: frontmatter: %w", err)
	}
	var buf bytes.Buffer
	err = compiled.Execute(&buf, struct {
		DigestDoc
		Frontmatter string
	}{d, string(fm)})
	if err != nil {
		return "", fmt.Errorf("render: digest template: %w", err)
	}
	return buf.String(), nil
}

// WriteMarkdown renders d into <dir>/<slug>.md and returns the path.
func WriteMarkdown(dir string, d DigestDoc) (string, error) {
	out, err := Markdown(d)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("render: mkdir: %w", err)
	}
	path := MarkdownPath(dir, d.Slug)
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("render: write: %w", err)
	}
	return path, nil
}

// MarkdownPath is <dir>/<slug>.md, with "digest" standing in for an empty slug.
func MarkdownPath(dir, slug string) string {
	if slug == "" {
		slug = "digest"
	}
	return filepath.Join(dir, slug+".md")
}
