package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"techread/internal/rank"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// LLMConfig points at an OpenAI-compatible chat endpoint (Ollama, LM Studio, OpenAI).
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"` // duration string, e.g., "60s"
}

// FetchConfig controls feed and page fetching.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	Timeout        string `mapstructure:"timeout"`       // duration string, e.g., "20s"
	HostInterval   string `mapstructure:"host_interval"` // minimum gap between requests to one host
	RespectRobots  bool   `mapstructure:"respect_robots"`
	LimitPerSource int    `mapstructure:"limit_per_source"`
}

// CacheConfig selects where fetched pages are kept.
type CacheConfig struct {
	Backend string `mapstructure:"backend"` // file or redis
	TTL     string `mapstructure:"ttl"`     // "0" keeps pages forever
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CloudflareConfig enables the Browser Rendering fallback for pages whose
// local extraction comes up short.
type CloudflareConfig struct {
	AccountID string `mapstructure:"account_id"`
	APIToken  string `mapstructure:"api_token"`
}

// DigestConfig controls digest selection and export.
type DigestConfig struct {
	Strategy    string `mapstructure:"strategy"` // greedy or exact
	WindowHours int    `mapstructure:"window_hours"`
	OutputDir   string `mapstructure:"output_dir"`
	Title       string `mapstructure:"title"`
	Minutes     int    `mapstructure:"minutes"` // reading budget; 0 disables
	MinItems    int    `mapstructure:"min_items"`
}

// ServeConfig controls the background collector.
type ServeConfig struct {
	Interval    string `mapstructure:"interval"`
	WriteDigest bool   `mapstructure:"write_digest"`
}

// Config is the top-level configuration structure.
type Config struct {
	App          AppConfig        `mapstructure:"app"`
	DBPath       string           `mapstructure:"db_path"`
	CacheDir     string           `mapstructure:"cache_dir"`
	DefaultTopN  int              `mapstructure:"default_top_n"`
	MinWordCount int              `mapstructure:"min_word_count"`
	Topics       []string         `mapstructure:"topics"`
	LLM          LLMConfig        `mapstructure:"llm"`
	Fetch        FetchConfig      `mapstructure:"fetch"`
	Cache        CacheConfig      `mapstructure:"cache"`
	Redis        RedisConfig      `mapstructure:"redis"`
	Cloudflare   CloudflareConfig `mapstructure:"cloudflare"`
	Digest       DigestConfig     `mapstructure:"digest"`
	Serve        ServeConfig      `mapstructure:"serve"`
	Weights      rank.Weights     `mapstructure:"weights"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(DataDir(), "techread.db")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(DataDir(), "cache")
	}
	c.DBPath = Expand(c.DBPath)
	c.CacheDir = Expand(c.CacheDir)
	if c.DefaultTopN <= 0 {
		c.DefaultTopN = 10
	}
	if c.MinWordCount < 0 {
		c.MinWordCount = 0
	}
	c.Topics = cleanTopics(c.Topics)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434/v1"
	}
	c.LLM.BaseURL = strings.TrimRight(c.LLM.BaseURL, "/")
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = "ollama"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "mistral-small-3.2"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "120s"
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "techread/0.1"
	}
	if c.Fetch.Timeout == "" {
		c.Fetch.Timeout = "20s"
	}
	if c.Fetch.HostInterval == "" {
		c.Fetch.HostInterval = "200ms"
	}
	if c.Fetch.LimitPerSource <= 0 {
		c.Fetch.LimitPerSource = 50
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if c.Cache.TTL == "" {
		c.Cache.TTL = "0"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Digest.Strategy == "" {
		c.Digest.Strategy = "greedy"
	}
	if c.Digest.WindowHours <= 0 {
		c.Digest.WindowHours = 48
	}
	if c.Digest.OutputDir == "" {
		c.Digest.OutputDir = "./out"
	}
	if c.Digest.Title == "" {
		c.Digest.Title = "techread digest {.CurrentDate}"
	}
	if c.Digest.Minutes < 0 {
		c.Digest.Minutes = 0
	}
	if c.Digest.MinItems <= 0 {
		c.Digest.MinItems = 1
	}
	if c.Serve.Interval == "" {
		c.Serve.Interval = "1h"
	}
	c.Weights = c.Weights.WithDefaults()
}

// EnsureDirs creates the database parent directory and the cache directory.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(c.CacheDir, 0o755)
}

// CloudflareEnabled reports whether the scrape fallback is configured.
func (c *Config) CloudflareEnabled() bool {
	return strings.TrimSpace(c.Cloudflare.AccountID) != "" && strings.TrimSpace(c.Cloudflare.APIToken) != ""
}

// ConfigDir is where config.yaml is looked up by default.
func ConfigDir() string {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("APPDATA"); base != "" {
			return filepath.Join(base, "techread")
		}
	}
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "techread")
	}
	return filepath.Join(home(), ".config", "techread")
}

// DataDir holds the database and the page cache by default.
func DataDir() string {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, "techread")
		}
		return filepath.Join(home(), "AppData", "Local", "techread")
	}
	return filepath.Join(home(), ".local", "share", "techread")
}

// Expand resolves environment variables and a leading ~ in p.
func Expand(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" {
		return home()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home(), p[2:])
	}
	return p
}

func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return h
}

func cleanTopics(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
