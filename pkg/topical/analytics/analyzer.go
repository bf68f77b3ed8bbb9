package analytics

import (
	"math"
	"sort"

	"github.com/cognicore/topical/pkg/topical/stoplist"
)

// Analyzer aggregates document-level token/category stats over a labeled corpus.
type Analyzer struct {
	totalDocs int64
	catDocs   map[string]int64
	tokenDF   map[string]int64
	tokenCats map[string]map[string]int64
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		catDocs:   make(map[string]int64),
		tokenDF:   make(map[string]int64),
		tokenCats: make(map[string]map[string]int64),
	}
}

// Process consumes one document's tokens and its category.
func (a *Analyzer) Process(tokens []string, category string) {
	a.totalDocs++
	if category != "" {
		a.catDocs[category]++
	}

	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		a.tokenDF[tok]++
		if category == "" {
			continue
		}
		if a.tokenCats[tok] == nil {
			a.tokenCats[tok] = make(map[string]int64)
		}
		a.tokenCats[tok][category]++
	}
}

// Stats exposes the aggregated counts.
type Stats struct {
	TotalDocs int64
	CatDocs   map[string]int64
	TokenDF   map[string]int64
	TokenCats map[string]map[string]int64
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	copyCats := make(map[string]map[string]int64, len(a.tokenCats))
	for tok, cats := range a.tokenCats {
		copyCats[tok] = make(map[string]int64, len(cats))
		for cat, count := range cats {
			copyCats[tok][cat] = count
		}
	}
	copyDF := make(map[string]int64, len(a.tokenDF))
	for tok, count := range a.tokenDF {
		copyDF[tok] = count
	}
	copyCatDocs := make(map[string]int64, len(a.catDocs))
	for cat, count := range a.catDocs {
		copyCatDocs[cat] = count
	}
	return Stats{
		TotalDocs: a.totalDocs,
		CatDocs:   copyCatDocs,
		TokenDF:   copyDF,
		TokenCats: copyCats,
	}
}

// StopwordStats converts corpus stats into the format expected by
// stoplist.Manager.SuggestCandidates, sorted by descending DF.
func (s Stats) StopwordStats() []stoplist.Stats {
	var out []stoplist.Stats
	if s.TotalDocs == 0 {
		return out
	}

	for tok, df := range s.TokenDF {
		out = append(out, stoplist.Stats{
			Token:      tok,
			DF:         df,
			DFPercent:  100 * (float64(df) / float64(s.TotalDocs)),
			IDF:        math.Log(float64(s.TotalDocs) / (1 + float64(df))),
			CatEntropy: s.labelEntropy(s.TokenCats[tok]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DF == out[j].DF {
			return out[i].Token < out[j].Token
		}
		return out[i].DF > out[j].DF
	})
	return out
}

// labelEntropy is the entropy of a token's per-category document rate,
// normalized to [0,1] by the entropy of a uniform spread over all categories.
// Rates are divided by category size so unbalanced splits do not bias it.
func (s Stats) labelEntropy(counts map[string]int64) float64 {
	if len(counts) == 0 || len(s.CatDocs) < 2 {
		return 0
	}

	rates := make([]float64, 0, len(counts))
	var total float64
	for cat, c := range counts {
		size := s.CatDocs[cat]
		if size == 0 {
			continue
		}
		r := float64(c) / float64(size)
		rates = append(rates, r)
		total += r
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, r := range rates {
		p := r / total
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h / math.Log2(float64(len(s.CatDocs)))
}
