package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"techread/internal/cache"
)

// ErrDisallowed is returned when robots.txt forbids fetching a page.
var ErrDisallowed = errors.New("ingest: disallowed by robots.txt")

const maxPageBytes = 10 << 20

// Fetcher downloads article pages through the page cache.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	Cache     cache.Cache    // optional
	Limiter   *HostLimiter   // optional
	Robots    *RobotsChecker // optional; nil skips robots.txt
}

// NewFetcher returns a Fetcher with a client using timeout.
func NewFetcher(timeout time.Duration, userAgent string, c cache.Cache) *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Cache:     c,
	}
}

// FetchHTML returns the body of url, from the cache when present.
func (f *Fetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	if f.Cache != nil {
		body, ok, err := f.Cache.Get(ctx, url)
		if err != nil {
			slog.Warn("fetch: cache read failed", "url", url, "err", err)
		} else if ok {
			return string(body), nil
		}
	}

	if f.Robots != nil {
		ok, err := f.Robots.Allowed(ctx, url)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrDisallowed, url)
		}
	}
	if err := f.Limiter.Wait(ctx, url); err != nil {
		return "", fmt.Errorf("ingest: rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("ingest: new request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ingest: get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("ingest: get %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("ingest: read %s: %w", url, err)
	}

	if f.Cache != nil {
		if err := f.Cache.Set(ctx, url, body); err != nil {
			slog.Warn("fetch: cache write failed", "url", url, "err", err)
		}
	}
	return string(body), nil
}
