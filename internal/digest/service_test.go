package digest

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"techread/internal/ai"
	"techread/internal/model"
	"techread/internal/rank"
	"techread/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	calls int
	out   string
	err   error
}

func (f *fakeLLM) Summarize(_ context.Context, mode ai.Mode, title, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.out != "" {
		return f.out, nil
	}
	return string(mode) + ": " + title + "\nsecond line", nil
}

func (f *fakeLLM) GenerateTags(context.Context, ai.TagInput) (string, error) { return "", nil }
func (f *fakeLLM) Model() string { return "fake" }

var now = time.Date(2024, 12, 29, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *storage.Store
	svc   *Service
	llm   *fakeLLM
	src   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	src, err := st.AddSource(context.Background(), model.Source{Name: "Src", URL: "https://src.example/feed"})
	require.NoError(t, err)
	llm := &fakeLLM{}
	return &fixture{
		store: st,
		llm:   llm,
		src:   src,
		svc: &Service{
			Store:  st,
			LLM:    llm,
			Topics: []string{"sqlite"},
			Now:    func() time.Time { return now },
		},
	}
}

func (fx *fixture) post(t *testing.T, title string, age time.Duration, words int) int64 {
	t.Helper()
	text := strings.TrimSpace(strings.Repeat("lorem ", words))
	id, err := fx.store.InsertPost(context.Background(), model.Post{
		SourceID:    fx.src,
		Title:       title,
		URL:         "https://src.example/" + strings.ReplaceAll(title, " ", "-"),
		PublishedAt: now.Add(-age).Format(time.RFC3339),
		ContentText: text,
		WordCount:   words,
	})
	require.NoError(t, err)
	return id
}

func TestScoreAllAndRanked(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	old := fx.post(t, "old news", 72*time.Hour, 100)
	topical := fx.post(t, "sqlite internals", time.Hour, 100)
	plain := fx.post(t, "plain", time.Hour, 100)

	n, err := fx.svc.ScoreAll(ctx, storage.Filter{}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = fx.svc.ScoreAll(ctx, storage.Filter{}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "nothing missing")

	ranked, err := fx.svc.Ranked(ctx, storage.Filter{}, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, topical, ranked[0].ID)
	assert.Equal(t, plain, ranked[1].ID)
	assert.NotEqual(t, old, ranked[1].ID)

	var b rank.Breakdown
	require.NoError(t, json.Unmarshal([]byte(ranked[0].BreakdownJSON), &b))
	assert.Equal(t, 1, b.TopicHits)
	assert.Equal(t, 100, b.WordCount)
	want := rank.Score(rank.NewInput(now, now.Add(-time.Hour).Format(time.RFC3339), 1, "sqlite internals", ranked[0].ContentText, 100, []string{"sqlite"}), rank.DefaultWeights())
	assert.InDelta(t, want.Score, ranked[0].Score, 1e-9)
}

func TestBuildWithBudgetAndSummaries(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	short := fx.post(t, "short sqlite note", time.Hour, 220)
	long := fx.post(t, "long sqlite essay", time.Hour, 2200)
	read := fx.post(t, "already read sqlite", time.Hour, 220)
	require.NoError(t, fx.store.SetReadState(ctx, read, model.StateRead))

	items, err := fx.svc.Build(ctx, Options{Top: 5, Minutes: 5, AutoSummarize: true, Filter: storage.Filter{IncludeRead: true}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, short, items[0].ID)
	assert.Equal(t, "short: short sqlite note", items[0].OneLiner, "first line only")
	assert.Equal(t, 1, fx.llm.calls)

	_, err = fx.svc.Build(ctx, Options{Top: 5, Minutes: 5, AutoSummarize: true})
	require.NoError(t, err)
	assert.Equal(t, 1, fx.llm.calls, "second build hits the summary cache")

	items, err = fx.svc.Build(ctx, Options{Top: 5})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Empty(t, items[0].OneLiner)
	ids := []int64{items[0].ID, items[1].ID}
	assert.ElementsMatch(t, []int64{short, long}, ids)
	assert.Equal(t, 11, TotalMinutes(items, 220))
}

func TestBuildTopLimitAndSummaryFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	for i := 0; i < 4; i++ {
		fx.post(t, "post "+string(rune('a'+i)), time.Duration(i)*time.Hour, 300)
	}
	fx.llm.err = errors.New("offline")

	items, err := fx.svc.Build(ctx, Options{Top: 2, AutoSummarize: true})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Empty(t, it.OneLiner)
	}
}

func TestBuildExactStrategy(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.post(t, "a", time.Hour, 440)
	fx.post(t, "b", time.Hour, 440)
	fx.post(t, "c", time.Hour, 880)
	b, err := rank.NewBudgeter("exact", 220)
	require.NoError(t, err)
	fx.svc.Budgeter = b

	items, err := fx.svc.Build(ctx, Options{Top: 10, Minutes: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, TotalMinutes(items, 220))
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	tiny := fx.post(t, "tiny", time.Hour, 5)
	full := fx.post(t, "full", time.Hour, 100)

	_, err := fx.svc.Summarize(ctx, tiny, ai.ModeTakeaways)
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = fx.svc.Summarize(ctx, 999, ai.ModeTakeaways)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	res, err := fx.svc.Summarize(ctx, full, ai.ModeBullets)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "bullets: full\nsecond line", res.Text)
	assert.Equal(t, "full", res.Post.Title)

	res, err = fx.svc.Summarize(ctx, full, ai.ModeBullets)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, fx.llm.calls)

	fx.svc.LLM = nil
	_, err = fx.svc.Summarize(ctx, full, ai.ModeShort)
	assert.ErrorIs(t, err, ErrNoLLM)
}
