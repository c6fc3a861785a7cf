// Package cache keeps fetched HTML pages so repeated fetches of the same URL
// do not hit the network.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"techread/internal/config"
	"techread/internal/redisclient"
	"techread/internal/textutil"

	"github.com/redis/go-redis/v9"
)

// Cache stores page bodies by URL. A miss is reported with ok=false, not an error.
type Cache interface {
	Get(ctx context.Context, url string) (body []byte, ok bool, err error)
	Set(ctx context.Context, url string, body []byte) error
}

// Key is the cache key of a URL.
func Key(url string) string {
	return textutil.StableHash(url)
}

// New builds the cache backend selected in cfg. The returned close function
// releases backend resources and is never nil.
func New(cfg *config.Config) (Cache, func() error, error) {
	ttl, err := parseTTL(cfg.Cache.TTL)
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Cache.Backend {
	case "", "file":
		return NewFileCache(filepath.Join(cfg.CacheDir, "html"), ttl), func() error { return nil }, nil
	case "redis":
		rdb := redisclient.New(cfg.Redis)
		return NewRedisCache(rdb, ttl), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("cache: unknown backend %q", cfg.Cache.Backend)
	}
}

func parseTTL(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("cache: invalid ttl %q: %w", s, err)
	}
	return d, nil
}

// FileCache stores each page as <dir>/<sha256(url)>.html.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileCache returns a cache rooted at dir. ttl <= 0 keeps entries forever.
func NewFileCache(dir string, ttl time.Duration) *FileCache {
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}
}

// Path is where the page for url is stored.
func (c *FileCache) Path(url string) string {
	return filepath.Join(c.dir, Key(url)+".html")
}

func (c *FileCache) Get(_ context.Context, url string) ([]byte, bool, error) {
	p := c.Path(url)
	fi, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: stat: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(fi.ModTime()) > c.ttl {
		return nil, false, nil
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, fmt.Errorf("cache: read: %w", err)
	}
	return b, true, nil
}

func (c *FileCache) Set(_ context.Context, url string, body []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache: mkdir: %w", err)
	}
	p := c.Path(url)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("cache: rename: %w", err)
	}
	return nil
}

// RedisCache stores pages under techread:page:<sha256(url)>.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps rdb. ttl <= 0 keeps entries forever.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func pageKey(url string) string {
	return "techread:page:" + Key(url)
}

func (c *RedisCache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, pageKey(url)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get: %w", err)
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, url string, body []byte) error {
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, pageKey(url), body, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}
