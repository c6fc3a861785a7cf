// Package digest ties storage, scoring, budgeting and summaries together
// for the rank, digest and summarize commands.
package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"techread/internal/ai"
	"techread/internal/model"
	"techread/internal/rank"
	"techread/internal/storage"
	"techread/internal/textutil"
	"techread/internal/timeutil"
)

// MinSummaryChars is the least amount of extracted text worth summarizing.
const MinSummaryChars = 200

var (
	ErrTooShort = errors.New("digest: not enough extracted text to summarize")
	ErrNoLLM    = errors.New("digest: no summarizer configured")
)

// Store is the persistence the service needs; *storage.Store satisfies it.
type Store interface {
	CandidatePosts(ctx context.Context, f storage.Filter) ([]model.Candidate, error)
	HasScore(ctx context.Context, postID int64) (bool, error)
	UpsertScore(ctx context.Context, postID int64, scoredAt string, score float64, breakdownJSON string) error
	TopScored(ctx context.Context, f storage.Filter, limit int) ([]model.RankedPost, error)
	GetPost(ctx context.Context, id int64) (model.Post, error)
	GetSummary(ctx context.Context, postID int64, mode, llmModel, contentHash string) (string, error)
	UpsertSummary(ctx context.Context, s model.Summary) error
}

type Service struct {
	Store    Store
	LLM      ai.Summarizer // optional
	Topics   []string
	Weights  rank.Weights
	Budgeter rank.Budgeter // nil means greedy

	// Now is overridable for tests.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return timeutil.NowUTC()
}

func (s *Service) weights() rank.Weights {
	return s.Weights.WithDefaults()
}

// ScoreAll scores every candidate matching f and persists the result. With
// onlyMissing, posts that already have a score keep it. It returns the number
// of posts scored.
func (s *Service) ScoreAll(ctx context.Context, f storage.Filter, onlyMissing bool) (int, error) {
	cands, err := s.Store.CandidatePosts(ctx, f)
	if err != nil {
		return 0, err
	}
	now := s.now()
	scoredAt := timeutil.FormatISO(now)
	w := s.weights()
	n := 0
	for _, c := range cands {
		if onlyMissing {
			has, err := s.Store.HasScore(ctx, c.ID)
			if err != nil {
				return n, err
			}
			if has {
				continue
			}
		}
		res := rank.Score(rank.NewInput(now, c.PublishedAt, c.SourceWeight, c.Title, c.ContentText, c.WordCount, s.Topics), w)
		b, err := json.Marshal(res.Breakdown)
		if err != nil {
			return n, fmt.Errorf("digest: encode breakdown: %w", err)
		}
		if err := s.Store.UpsertScore(ctx, c.ID, scoredAt, res.Score, string(b)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Ranked rescores everything matching f and returns the top posts.
func (s *Service) Ranked(ctx context.Context, f storage.Filter, top int) ([]model.RankedPost, error) {
	if _, err := s.ScoreAll(ctx, f, false); err != nil {
		return nil, err
	}
	return s.Store.TopScored(ctx, f, max(1, top))
}

// Options controls Build.
type Options struct {
	Filter        storage.Filter
	Top           int
	Minutes       int // reading budget; 0 disables
	AutoSummarize bool
}

// Build selects a digest: unread posts in the filter, best first, fitted to
// the reading budget, each with an optional one-line summary.
func (s *Service) Build(ctx context.Context, opts Options) ([]model.RankedPost, error) {
	f := opts.Filter
	f.IncludeRead = false
	top := max(1, opts.Top)

	if _, err := s.ScoreAll(ctx, f, true); err != nil {
		return nil, err
	}
	pool, err := s.Store.TopScored(ctx, f, top*3)
	if err != nil {
		return nil, err
	}

	items := s.selectItems(pool, opts.Minutes, top)
	if opts.AutoSummarize && s.LLM != nil {
		for i := range items {
			items[i].OneLiner = s.oneLiner(ctx, items[i].Post)
		}
	}
	return items, nil
}

func (s *Service) selectItems(pool []model.RankedPost, minutes, top int) []model.RankedPost {
	if minutes <= 0 {
		if len(pool) > top {
			pool = pool[:top]
		}
		return pool
	}
	byID := make(map[int64]model.RankedPost, len(pool))
	cands := make([]rank.Candidate, 0, len(pool))
	for _, p := range pool {
		byID[p.ID] = p
		cands = append(cands, rank.Candidate{ID: p.ID, Score: p.Score, WordCount: p.WordCount})
	}
	b := s.Budgeter
	if b == nil {
		b = rank.Greedy{WordsPerMinute: s.weights().WordsPerMinute}
	}
	chosen := b.Select(cands, minutes, top)
	out := make([]model.RankedPost, 0, len(chosen))
	for _, c := range chosen {
		out = append(out, byID[c.ID])
	}
	return out
}

// oneLiner returns the first line of a cached or freshly generated short
// summary. Failures yield an empty string.
func (s *Service) oneLiner(ctx context.Context, p model.Post) string {
	if p.ContentText == "" {
		return ""
	}
	text, _, err := s.summary(ctx, p, ai.ModeShort)
	if err != nil {
		slog.Warn("digest: summary failed", "post", p.ID, "err", err)
		return ""
	}
	return textutil.FirstLine(text)
}

// summary looks up the cache before calling the model and stores fresh results.
func (s *Service) summary(ctx context.Context, p model.Post, mode ai.Mode) (string, bool, error) {
	hash := p.ContentHash
	if hash == "" {
		hash = textutil.StableHash(p.ContentText)
	}
	llmModel := s.LLM.Model()
	cached, err := s.Store.GetSummary(ctx, p.ID, string(mode), llmModel, hash)
	if err == nil {
		return cached, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", false, err
	}
	out, err := s.LLM.Summarize(ctx, mode, p.Title, p.URL, p.ContentText)
	if err != nil {
		return "", false, err
	}
	err = s.Store.UpsertSummary(ctx, model.Summary{
		PostID:      p.ID,
		Mode:        string(mode),
		Model:       llmModel,
		ContentHash: hash,
		Text:        out,
		CreatedAt:   timeutil.FormatISO(s.now()),
	})
	if err != nil {
		return "", false, err
	}
	return out, false, nil
}

// SummaryResult is a summary together with the post it describes.
type SummaryResult struct {
	Post   model.Post
	Text   string
	Cached bool
}

// Summarize returns the summary of a post in mode, generating it if needed.
func (s *Service) Summarize(ctx context.Context, postID int64, mode ai.Mode) (SummaryResult, error) {
	p, err := s.Store.GetPost(ctx, postID)
	if err != nil {
		return SummaryResult{}, err
	}
	res := SummaryResult{Post: p}
	if utf8.RuneCountInString(p.ContentText) < MinSummaryChars {
		return res, ErrTooShort
	}
	if s.LLM == nil {
		return res, ErrNoLLM
	}
	res.Text, res.Cached, err = s.summary(ctx, p, mode)
	return res, err
}

// TotalMinutes is the estimated reading time of a digest.
func TotalMinutes(items []model.RankedPost, wpm float64) int {
	total := 0
	for _, it := range items {
		total += rank.EstimatedMinutes(it.WordCount, wpm)
	}
	return total
}
