package rank

import (
	"math"
	"time"

	"techread/internal/textutil"
	"techread/internal/timeutil"
)

// ScoringInput is everything the scoring formula looks at for one post.
type ScoringInput struct {
	Now time.Time
	// PublishedAt is the zero time when the publish date could not be parsed;
	// the post is then treated as published at Now.
	PublishedAt  time.Time
	SourceWeight float64
	Title        string
	Content      string
	WordCount    int
	Topics       []string
}

// Breakdown is the display form of a score. Values are rounded and must not be
// fed back into further computation.
type Breakdown struct {
	AgeHours      float64 `json:"age_hours"`
	Freshness     float64 `json:"freshness"`
	SourceWeight  float64 `json:"source_weight"`
	TopicHits     int     `json:"topic_hits"`
	TopicScore    float64 `json:"topic_score"`
	WordCount     int     `json:"word_count"`
	LengthPenalty float64 `json:"length_penalty"`
	Final         float64 `json:"final"`
}

// ScoreResult pairs the full-precision score with its breakdown.
type ScoreResult struct {
	Score     float64
	Breakdown Breakdown
}

// Freshness decays exponentially with age: 1.0 at age 0, about 0.51 after a day
// and 0.01 after a week.
func (w Weights) Freshness(ageHours float64) float64 {
	return math.Exp(-ageHours / w.FreshnessDecayHours)
}

// TopicScore converts a hit count into the capped topic contribution.
func (w Weights) TopicScore(hits int) float64 {
	return math.Min(float64(hits)*w.TopicHitValue, w.TopicScoreCap)
}

// LengthPenalty ramps linearly up to LengthPenaltyMax at LengthPenaltyWords.
func (w Weights) LengthPenalty(wordCount int) float64 {
	return math.Min(float64(wordCount)/w.LengthPenaltyWords, 1.0) * w.LengthPenaltyMax
}

// Score computes the ranking score of one post.
func Score(in ScoringInput, w Weights) ScoreResult {
	published := in.PublishedAt
	if published.IsZero() {
		published = in.Now
	}
	ageHours := math.Max(0, in.Now.Sub(published).Hours())
	freshness := w.Freshness(ageHours)

	excerpt := textutil.Truncate(in.Content, w.ExcerptChars)
	hits := textutil.ContainsAny(in.Title, in.Topics) + textutil.ContainsAny(excerpt, in.Topics)
	topicScore := w.TopicScore(hits)

	penalty := w.LengthPenalty(in.WordCount)

	final := w.FreshnessWeight*freshness +
		w.SourceWeightMultiplier*in.SourceWeight +
		w.TopicMultiplier*topicScore -
		w.LengthPenaltyMultiplier*penalty

	return ScoreResult{
		Score: final,
		Breakdown: Breakdown{
			AgeHours:      round(ageHours, 2),
			Freshness:     round(freshness, 4),
			SourceWeight:  round(in.SourceWeight, 3),
			TopicHits:     hits,
			TopicScore:    round(topicScore, 3),
			WordCount:     in.WordCount,
			LengthPenalty: round(penalty, 3),
			Final:         round(final, 4),
		},
	}
}

// ScorePost scores a stored post row with the default weights. An unparsable
// publishedAt counts as published now.
func ScorePost(now time.Time, publishedAt string, sourceWeight float64, title, content string, wordCount int, topics []string) ScoreResult {
	return Score(NewInput(now, publishedAt, sourceWeight, title, content, wordCount, topics), DefaultWeights())
}

// NewInput builds a ScoringInput from the string-typed columns of a post row.
func NewInput(now time.Time, publishedAt string, sourceWeight float64, title, content string, wordCount int, topics []string) ScoringInput {
	in := ScoringInput{
		Now:          now,
		SourceWeight: sourceWeight,
		Title:        title,
		Content:      content,
		WordCount:    wordCount,
		Topics:       topics,
	}
	if t, err := timeutil.ParseISO(publishedAt); err == nil {
		in.PublishedAt = t
	}
	return in
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
