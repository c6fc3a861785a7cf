package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"techread/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHTMLCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "techread/0.1", r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		_, _ = w.Write([]byte("<html><body>hi</body></html>"))
	}))
	defer srv.Close()

	c := cache.NewFileCache(filepath.Join(t.TempDir(), "html"), 0)
	f := NewFetcher(5*time.Second, "techread/0.1", c)

	body, err := f.FetchHTML(context.Background(), srv.URL+"/a")
	require.NoError(t, err)
	assert.Contains(t, body, "hi")

	body, err = f.FetchHTML(context.Background(), srv.URL+"/a")
	require.NoError(t, err)
	assert.Contains(t, body, "hi")
	assert.EqualValues(t, 1, hits.Load(), "second fetch is served from cache")
}

func TestFetchHTMLFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved here"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	body, err := NewFetcher(time.Second, "", nil).FetchHTML(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, "moved here", body)
}

func TestFetchHTMLStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := cache.NewFileCache(t.TempDir(), 0)
	f := NewFetcher(time.Second, "", c)
	_, err := f.FetchHTML(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, ok, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, ok, "errors are not cached")
}

func TestFetchHTMLRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(time.Second, "techread", nil)
	f.Robots = NewRobotsChecker(srv.Client(), "techread")

	_, err := f.FetchHTML(context.Background(), srv.URL+"/private/post")
	assert.ErrorIs(t, err, ErrDisallowed)

	body, err := f.FetchHTML(context.Background(), srv.URL+"/public/post")
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
}

func TestRobotsMissingAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ok, err := NewRobotsChecker(srv.Client(), "techread").Allowed(context.Background(), srv.URL+"/x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHostLimiter(t *testing.T) {
	ctx := context.Background()
	l := NewHostLimiter(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://a.example/1"))
	require.NoError(t, l.Wait(ctx, "https://b.example/1"))
	assert.Less(t, time.Since(start), 40*time.Millisecond, "different hosts do not wait on each other")

	require.NoError(t, l.Wait(ctx, "https://a.example/2"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	assert.Error(t, l.Wait(ctx, "/relative"))
	var disabled *HostLimiter
	assert.NoError(t, disabled.Wait(ctx, "/relative"))
}
