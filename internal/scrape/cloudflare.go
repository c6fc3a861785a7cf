package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"techread/internal/textutil"
)

// Page is the rendered text of a page.
type Page struct {
	Title string
	Text  string
}

// CloudflareClient renders pages with the Cloudflare Browser Rendering
// markdown endpoint. It is used for pages whose content is built by
// JavaScript and comes back empty from a plain GET.
// See: https://developers.cloudflare.com/browser-rendering/rest-api/
type CloudflareClient struct {
	endpoint string
	token    string
	http     *http.Client
}

type markdownRequest struct {
	URL                  string   `json:"url"`
	RejectRequestPattern []string `json:"rejectRequestPattern,omitempty"`
}

type markdownResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// NewCloudflare creates a client for the given account.
func NewCloudflare(accountID, token string, timeout time.Duration) *CloudflareClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CloudflareClient{
		endpoint: fmt.Sprintf("https://api.cloudflare.com/client/v4/accounts/%s/browser-rendering/markdown", strings.TrimSpace(accountID)),
		token:    strings.TrimSpace(token),
		http:     &http.Client{Timeout: timeout},
	}
}

// WithEndpoint points the client at a different API URL.
func (c *CloudflareClient) WithEndpoint(endpoint string) *CloudflareClient {
	c.endpoint = strings.TrimRight(endpoint, "/")
	return c
}

// Render returns the title and plain text of the page at u.
func (c *CloudflareClient) Render(ctx context.Context, u string) (Page, error) {
	if c == nil {
		return Page{}, errors.New("scrape: nil cloudflare client")
	}
	if _, err := url.ParseRequestURI(u); err != nil {
		return Page{}, fmt.Errorf("scrape: invalid url: %w", err)
	}
	body, err := json.Marshal(markdownRequest{
		URL:                  u,
		RejectRequestPattern: []string{`/^.*\.(css|png|jpg|jpeg|gif|webp|woff2?)/`},
	})
	if err != nil {
		return Page{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("scrape: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Page{}, fmt.Errorf("scrape: cloudflare status=%d body=%s", resp.StatusCode, string(b))
	}
	var env markdownResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Page{}, fmt.Errorf("scrape: decode: %w", err)
	}
	if !env.Success {
		msg := "unknown error"
		if len(env.Errors) > 0 {
			msg = env.Errors[0].Message
		}
		return Page{}, fmt.Errorf("scrape: cloudflare: %s", msg)
	}
	return Page{Title: markdownTitle(env.Result), Text: markdownText(env.Result)}, nil
}

// markdownTitle picks the shallowest heading, the first one on ties.
func markdownTitle(md string) string {
	best, depth := "", 7
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		d := len(line) - len(strings.TrimLeft(line, "#"))
		if d < depth {
			best, depth = strings.TrimSpace(line[d:]), d
		}
	}
	return best
}

var (
	mdImage    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEmphasis = regexp.MustCompile("[*_`]+")
	mdHeading  = regexp.MustCompile(`(?m)^\s*#+\s*`)
)

// markdownText reduces rendered markdown to plain words.
func markdownText(md string) string {
	s := mdImage.ReplaceAllString(md, " ")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdEmphasis.ReplaceAllString(s, "")
	return textutil.NormalizeWhitespace(s)
}
