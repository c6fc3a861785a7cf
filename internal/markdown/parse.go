package markdown

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a markdown file with optional YAML frontmatter.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Link is a "[title](url)" heading of a digest entry.
type Link struct {
	Title string
	URL   string
}

// ParseFile reads and parses the markdown file at path.
func ParseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse splits r into frontmatter and body. Frontmatter is recognized only at
// the very top, between two lines containing exactly "---".
func Parse(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	doc := Document{Frontmatter: map[string]any{}}

	peek, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return Document{}, err
	}
	if string(peek) == "---" {
		if _, err := br.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, err
		}
		var fm strings.Builder
		closed := false
		for {
			line, err := br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return Document{}, err
			}
			if strings.TrimSpace(line) == "---" {
				closed = true
				break
			}
			fm.WriteString(line)
			if errors.Is(err, io.EOF) {
				break
			}
		}
		if !closed {
			return Document{}, errors.New("markdown: unterminated frontmatter")
		}
		if err := yaml.Unmarshal([]byte(fm.String()), &doc.Frontmatter); err != nil {
			return Document{}, fmt.Errorf("markdown: frontmatter: %w", err)
		}
		if doc.Frontmatter == nil {
			doc.Frontmatter = map[string]any{}
		}
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return Document{}, err
	}
	doc.Body = string(body)
	return doc, nil
}

// String returns a frontmatter value formatted as text, or "".
func (d Document) String(key string) string {
	v, ok := d.Frontmatter[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

var headingLink = regexp.MustCompile(`(?m)^#{2,}\s+(?:\d+\.\s+)?\[([^\]]+)\]\(([^)\s]+)\)`)

// Links returns the linked headings of the body in order.
func (d Document) Links() []Link {
	var out []Link
	for _, m := range headingLink.FindAllStringSubmatch(d.Body, -1) {
		out = append(out, Link{Title: m[1], URL: m[2]})
	}
	return out
}
