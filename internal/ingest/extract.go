package ingest

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"techread/internal/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// Extracted is the readable text of a page.
type Extracted struct {
	Text      string
	WordCount int
}

// boilerplate is removed before readability scoring.
const boilerplate = "script, style, noscript, template, iframe, nav, header, footer, aside, form"

// Extract returns the main text of an HTML page with whitespace normalized.
// pageURL may be empty.
func Extract(page, pageURL string) (Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Extracted{}, fmt.Errorf("ingest: parse html: %w", err)
	}
	doc.Find(boilerplate).Remove()
	cleaned, err := doc.Html()
	if err != nil {
		return Extracted{}, fmt.Errorf("ingest: render html: %w", err)
	}

	var u *url.URL
	if pageURL != "" {
		u, _ = url.Parse(pageURL)
	}
	text := ""
	if article, err := readability.FromReader(strings.NewReader(cleaned), u); err == nil {
		text = textutil.NormalizeWhitespace(article.TextContent)
	}
	if text == "" {
		text = textutil.NormalizeWhitespace(doc.Find("body").Text())
	}
	return Extracted{Text: text, WordCount: textutil.WordCount(text)}, nil
}

var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// ExtractSummary turns a feed item's HTML summary into plain text.
func ExtractSummary(summary string) Extracted {
	text := html.UnescapeString(strict.Sanitize(summary))
	text = textutil.NormalizeWhitespace(text)
	return Extracted{Text: text, WordCount: textutil.WordCount(text)}
}
