package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"techread/internal/ai"
	"techread/internal/cache"
	"techread/internal/config"
	"techread/internal/digest"
	"techread/internal/ingest"
	"techread/internal/rank"
	"techread/internal/render"
	"techread/internal/scrape"
	"techread/internal/storage"
	"techread/internal/timeutil"

	"github.com/spf13/cobra"
)

// openStore prepares the data directories and opens the database.
func openStore(ctx context.Context, cfg config.Config) (*storage.Store, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create data dirs: %w", err)
	}
	return storage.Open(ctx, cfg.DBPath)
}

func duration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return d, nil
}

// newSummarizer builds the OpenAI-compatible client from cfg.llm.
func newSummarizer(cfg config.Config) (*ai.OpenAIClient, error) {
	timeout, err := duration("llm.timeout", cfg.LLM.Timeout)
	if err != nil {
		return nil, err
	}
	return ai.NewOpenAI(ai.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		Timeout:     timeout,
	})
}

// newService wires the ranking and digest service. llm may be nil.
func newService(cfg config.Config, store *storage.Store, llm ai.Summarizer) (*digest.Service, error) {
	b, err := rank.NewBudgeter(cfg.Digest.Strategy, cfg.Weights.WordsPerMinute)
	if err != nil {
		return nil, err
	}
	return &digest.Service{
		Store:    store,
		LLM:      llm,
		Topics:   cfg.Topics,
		Weights:  cfg.Weights,
		Budgeter: b,
	}, nil
}

func newFeedParser(cfg config.Config) (*ingest.FeedParser, error) {
	timeout, err := duration("fetch.timeout", cfg.Fetch.Timeout)
	if err != nil {
		return nil, err
	}
	return &ingest.FeedParser{Client: &http.Client{Timeout: timeout}, UserAgent: cfg.Fetch.UserAgent}, nil
}

// newCollector wires feed parsing, page fetching, caching and the optional
// rendering fallback. The returned close function releases the page cache.
func newCollector(cfg config.Config, store *storage.Store) (*ingest.Collector, func() error, error) {
	timeout, err := duration("fetch.timeout", cfg.Fetch.Timeout)
	if err != nil {
		return nil, nil, err
	}
	interval, err := duration("fetch.host_interval", cfg.Fetch.HostInterval)
	if err != nil {
		return nil, nil, err
	}
	pages, closeCache, err := cache.New(&cfg)
	if err != nil {
		return nil, nil, err
	}
	feeds, err := newFeedParser(cfg)
	if err != nil {
		_ = closeCache()
		return nil, nil, err
	}

	fetcher := ingest.NewFetcher(timeout, cfg.Fetch.UserAgent, pages)
	fetcher.Limiter = ingest.NewHostLimiter(interval)
	if cfg.Fetch.RespectRobots {
		fetcher.Robots = ingest.NewRobotsChecker(fetcher.Client, cfg.Fetch.UserAgent)
	}

	c := &ingest.Collector{
		Store:        store,
		Feeds:        feeds,
		Pages:        fetcher,
		MinWordCount: cfg.MinWordCount,
		InvalidLog:   ingest.InvalidLogPath(cfg.CacheDir),
	}
	if cfg.CloudflareEnabled() {
		c.Fallback = scrape.NewCloudflare(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken, 2*timeout)
	}
	return c, closeCache, nil
}

func printer(cmd *cobra.Command) *render.Printer {
	return render.NewPrinter(cmd.OutOrStdout())
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// postFilter is the shared --today/--all, --hours, -s and -t filter of rank
// and digest.
type postFilter struct {
	today     bool
	all       bool
	hours     int
	sourceIDs []int64
	tags      []string
}

func (pf *postFilter) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&pf.today, "today", true, "only recent posts, see --hours (default)")
	cmd.Flags().BoolVar(&pf.all, "all", false, "consider all posts regardless of age")
	cmd.Flags().IntVar(&pf.hours, "hours", 48, "recent window in hours")
	cmd.Flags().Int64SliceVarP(&pf.sourceIDs, "source", "s", nil, "only posts from these source ids")
	cmd.Flags().StringSliceVarP(&pf.tags, "tag", "t", nil, "only sources whose name or tags contain these terms")
	cmd.MarkFlagsMutuallyExclusive("today", "all")
}

// filter builds the storage filter. defaultHours applies when --hours was
// not given.
func (pf *postFilter) filter(cmd *cobra.Command, now time.Time, defaultHours int) storage.Filter {
	f := storage.Filter{SourceIDs: pf.sourceIDs, Tags: pf.tags}
	if pf.all {
		return f
	}
	hours := pf.hours
	if !cmd.Flags().Changed("hours") && defaultHours > 0 {
		hours = defaultHours
	}
	f.Since = timeutil.FormatISO(now.Add(-time.Duration(max(1, hours)) * time.Hour))
	return f
}
