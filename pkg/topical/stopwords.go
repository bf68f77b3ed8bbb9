package topical

import (
	"github.com/cognicore/topical/pkg/topical/analytics"
	"github.com/cognicore/topical/pkg/topical/corpus"
	"github.com/cognicore/topical/pkg/topical/normalize"
	"github.com/cognicore/topical/pkg/topical/stoplist"
)

// SuggestStopwords proposes additional stopwords for a labeled corpus: tokens
// that survive the current normalizer yet occur in many documents spread
// evenly across categories.
func SuggestStopwords(n *normalize.Normalizer, ds corpus.Dataset, current *stoplist.Manager, thresholds stoplist.Thresholds) []stoplist.Candidate {
	a := analytics.NewAnalyzer()
	for i, doc := range ds.Docs {
		a.Process(n.Tokens(doc), ds.Category(ds.Labels[i]))
	}
	if current == nil {
		current = stoplist.NewManager(nil)
	}
	return current.SuggestCandidates(a.Snapshot().StopwordStats(), thresholds)
}
