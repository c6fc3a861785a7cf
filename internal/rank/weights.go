// Package rank scores posts and selects digest items under a reading-time budget.
//
// Everything here is a pure function of its inputs: callers thread the current
// instant through explicitly and decide what to persist.
package rank

// Weights holds the tunable constants of the scoring formula and the budgeter.
type Weights struct {
	// FreshnessDecayHours is the e-folding time of the freshness decay
	// (freshness halves roughly every 25 hours at 36).
	FreshnessDecayHours float64 `mapstructure:"freshness_decay_hours"`
	TopicHitValue       float64 `mapstructure:"topic_hit_value"`
	TopicScoreCap       float64 `mapstructure:"topic_score_cap"`
	LengthPenaltyWords  float64 `mapstructure:"length_penalty_words"`
	LengthPenaltyMax    float64 `mapstructure:"length_penalty_max"`
	ExcerptChars        int     `mapstructure:"excerpt_chars"`

	FreshnessWeight         float64 `mapstructure:"freshness_weight"`
	SourceWeightMultiplier  float64 `mapstructure:"source_weight_multiplier"`
	TopicMultiplier         float64 `mapstructure:"topic_multiplier"`
	LengthPenaltyMultiplier float64 `mapstructure:"length_penalty_multiplier"`

	WordsPerMinute float64 `mapstructure:"words_per_minute"`
}

// DefaultWeights returns the stock ranking constants.
func DefaultWeights() Weights {
	return Weights{
		FreshnessDecayHours:     36.0,
		TopicHitValue:           0.15,
		TopicScoreCap:           0.6,
		LengthPenaltyWords:      2500.0,
		LengthPenaltyMax:        0.30,
		ExcerptChars:            2000,
		FreshnessWeight:         1.00,
		SourceWeightMultiplier:  0.20,
		TopicMultiplier:         0.70,
		LengthPenaltyMultiplier: 1.00,
		WordsPerMinute:          220.0,
	}
}

// WithDefaults fills zero fields from DefaultWeights. A config that sets only
// some of the constants keeps the stock values for the rest.
func (w Weights) WithDefaults() Weights {
	d := DefaultWeights()
	if w.FreshnessDecayHours <= 0 {
		w.FreshnessDecayHours = d.FreshnessDecayHours
	}
	if w.TopicHitValue == 0 {
		w.TopicHitValue = d.TopicHitValue
	}
	if w.TopicScoreCap == 0 {
		w.TopicScoreCap = d.TopicScoreCap
	}
	if w.LengthPenaltyWords <= 0 {
		w.LengthPenaltyWords = d.LengthPenaltyWords
	}
	if w.LengthPenaltyMax == 0 {
		w.LengthPenaltyMax = d.LengthPenaltyMax
	}
	if w.ExcerptChars <= 0 {
		w.ExcerptChars = d.ExcerptChars
	}
	if w.FreshnessWeight == 0 {
		w.FreshnessWeight = d.FreshnessWeight
	}
	if w.SourceWeightMultiplier == 0 {
		w.SourceWeightMultiplier = d.SourceWeightMultiplier
	}
	if w.TopicMultiplier == 0 {
		w.TopicMultiplier = d.TopicMultiplier
	}
	if w.LengthPenaltyMultiplier == 0 {
		w.LengthPenaltyMultiplier = d.LengthPenaltyMultiplier
	}
	if w.WordsPerMinute <= 0 {
		w.WordsPerMinute = d.WordsPerMinute
	}
	return w
}
