package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"techread/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewFileCache(filepath.Join(t.TempDir(), "html"), 0)

	_, ok, err := c.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "https://example.com/a", []byte("<p>hi</p>")))
	b, ok, err := c.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", string(b))

	assert.Equal(t, Key("https://example.com/a")+".html", filepath.Base(c.Path("https://example.com/a")))
	_, err = os.Stat(c.Path("https://example.com/a"))
	assert.NoError(t, err)
}

func TestFileCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := NewFileCache(t.TempDir(), time.Hour)
	require.NoError(t, c.Set(ctx, "u", []byte("x")))

	_, ok, err := c.Get(ctx, "u")
	require.NoError(t, err)
	assert.True(t, ok)

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok, err = c.Get(ctx, "u")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry is a miss")
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c := NewRedisCache(rdb, time.Minute)
	_, ok, err := c.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "https://example.com/a", []byte("body")))
	b, ok, err := c.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "body", string(b))
	assert.True(t, mr.Exists(pageKey("https://example.com/a")))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := &config.Config{CacheDir: t.TempDir()}
	c, closeFn, err := New(cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &FileCache{}, c)

	mr := miniredis.RunT(t)
	cfg.Cache = config.CacheConfig{Backend: "redis", TTL: "24h"}
	cfg.Redis.Addr = mr.Addr()
	c, closeFn, err = New(cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &RedisCache{}, c)

	cfg.Cache.Backend = "memcached"
	_, _, err = New(cfg)
	assert.Error(t, err)

	cfg.Cache = config.CacheConfig{Backend: "file", TTL: "soon"}
	_, _, err = New(cfg)
	assert.Error(t, err)
}
