package rank

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Candidate is a scored post considered for a digest.
type Candidate struct {
	ID        int64
	Score     float64
	WordCount int
}

// EstimatedMinutes is the reading time of wordCount words at wpm words per
// minute, never less than one minute. A non-positive wpm uses the default speed.
func EstimatedMinutes(wordCount int, wpm float64) int {
	if wordCount <= 0 {
		return 1
	}
	if wpm <= 0 {
		wpm = DefaultWeights().WordsPerMinute
	}
	m := int(math.RoundToEven(float64(wordCount) / wpm))
	if m < 1 {
		return 1
	}
	return m
}

// Budgeter picks digest items from candidates sorted by score descending.
type Budgeter interface {
	Select(candidates []Candidate, budgetMinutes, maxItems int) []Candidate
}

// NewBudgeter returns the budgeter for a strategy name: "greedy" (default) or "exact".
func NewBudgeter(strategy string, wpm float64) (Budgeter, error) {
	if wpm <= 0 {
		wpm = DefaultWeights().WordsPerMinute
	}
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", "greedy":
		return Greedy{WordsPerMinute: wpm}, nil
	case "exact", "knapsack":
		return Knapsack{WordsPerMinute: wpm}, nil
	default:
		return nil, fmt.Errorf("rank: unknown budget strategy %q", strategy)
	}
}

// Budget runs the greedy budgeter at the default reading speed.
func Budget(candidates []Candidate, budgetMinutes, maxItems int) []Candidate {
	return Greedy{WordsPerMinute: DefaultWeights().WordsPerMinute}.Select(candidates, budgetMinutes, maxItems)
}

// Greedy takes candidates in score-per-minute order, skipping any that no
// longer fit the remaining budget. It never backtracks.
type Greedy struct {
	WordsPerMinute float64
}

type costed struct {
	Candidate
	minutes    int
	efficiency float64
}

func byEfficiency(candidates []Candidate, wpm float64) []costed {
	out := make([]costed, len(candidates))
	for i, c := range candidates {
		m := EstimatedMinutes(c.WordCount, wpm)
		out[i] = costed{Candidate: c, minutes: m, efficiency: c.Score / float64(m)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].efficiency > out[j].efficiency })
	return out
}

func truncate(candidates []Candidate, maxItems int) []Candidate {
	if maxItems <= 0 || maxItems >= len(candidates) {
		return append([]Candidate(nil), candidates...)
	}
	return append([]Candidate(nil), candidates[:maxItems]...)
}

// Select implements Budgeter. With no budget it keeps the first maxItems in
// input order. maxItems <= 0 means no item limit.
func (g Greedy) Select(candidates []Candidate, budgetMinutes, maxItems int) []Candidate {
	if budgetMinutes <= 0 {
		return truncate(candidates, maxItems)
	}
	chosen := make([]Candidate, 0)
	remaining := budgetMinutes
	for _, c := range byEfficiency(candidates, g.WordsPerMinute) {
		if c.minutes <= remaining {
			chosen = append(chosen, c.Candidate)
			remaining -= c.minutes
		}
		if remaining <= 0 || (maxItems > 0 && len(chosen) >= maxItems) {
			break
		}
	}
	return chosen
}

// Knapsack maximizes the total score within the budget and item limit exactly.
// Chosen items are returned in score-per-minute order, like Greedy.
type Knapsack struct {
	WordsPerMinute float64
}

// Select implements Budgeter.
func (k Knapsack) Select(candidates []Candidate, budgetMinutes, maxItems int) []Candidate {
	if budgetMinutes <= 0 {
		return truncate(candidates, maxItems)
	}
	items := byEfficiency(candidates, k.WordsPerMinute)
	n := len(items)
	if maxItems <= 0 || maxItems > n {
		maxItems = n
	}
	total := 0
	for _, it := range items {
		total += it.minutes
	}
	budget := budgetMinutes
	if budget > total {
		budget = total
	}

	// best[c][b]: max score with exactly c items and at most b minutes.
	negInf := math.Inf(-1)
	best := make([][]float64, maxItems+1)
	for c := range best {
		best[c] = make([]float64, budget+1)
		for b := range best[c] {
			if c > 0 {
				best[c][b] = negInf
			}
		}
	}
	take := make([][][]bool, n)
	for i, it := range items {
		take[i] = make([][]bool, maxItems+1)
		for c := range take[i] {
			take[i][c] = make([]bool, budget+1)
		}
		for c := maxItems; c >= 1; c-- {
			for b := budget; b >= it.minutes; b-- {
				prev := best[c-1][b-it.minutes]
				if prev == negInf {
					continue
				}
				if v := prev + it.Score; v > best[c][b] {
					best[c][b] = v
					take[i][c][b] = true
				}
			}
		}
	}

	bestC, bestV := 0, 0.0
	for c := 1; c <= maxItems; c++ {
		if best[c][budget] > bestV {
			bestC, bestV = c, best[c][budget]
		}
	}

	picked := make([]bool, n)
	c, b := bestC, budget
	for i := n - 1; i >= 0 && c > 0; i-- {
		if take[i][c][b] {
			picked[i] = true
			b -= items[i].minutes
			c--
		}
	}
	out := make([]Candidate, 0, bestC)
	for i, it := range items {
		if picked[i] {
			out = append(out, it.Candidate)
		}
	}
	return out
}
