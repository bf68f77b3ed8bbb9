package stoplist

import (
	_ "embed"
	"sort"
	"strings"
)

//go:embed english.txt
var englishRaw string

// English returns the built-in English stopword list.
func English() []string {
	lines := strings.Split(englishRaw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Manager holds a stopword set and explains why each entry is there
type Manager struct {
	stops map[string]Reason
}

// Reason explains why a token is a stopword
type Reason struct {
	HighDF      bool    // high document frequency
	HighEntropy bool    // spread evenly across categories
	DFPercent   float64 // share of training documents containing the token
	CatEntropy  float64 // normalized label entropy
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Reason, len(initialStops))
	for _, s := range initialStops {
		stops[strings.ToLower(s)] = Reason{}
	}
	return &Manager{stops: stops}
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist with a reason
func (m *Manager) Add(token string, reason Reason) {
	m.stops[strings.ToLower(token)] = reason
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// All returns all stopwords in lexical order
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Stats holds per-token corpus statistics for candidate evaluation
type Stats struct {
	Token      string
	DF         int64
	DFPercent  float64
	IDF        float64
	CatEntropy float64
}

// Candidate represents a candidate stopword
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // confidence score
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent  float64 // e.g., 50% - appears in half of the documents
	CatEntropy float64 // e.g., 0.8 - close to uniform across categories
}

// DefaultThresholds returns sensible default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent:  50.0,
		CatEntropy: 0.8,
	}
}

// SuggestCandidates suggests tokens that should be stopwords, best first.
// A token qualifies when it occurs in many documents and carries little
// information about the label.
func (m *Manager) SuggestCandidates(stats []Stats, thresholds Thresholds) []Candidate {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}

	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue // already a stopword
		}

		reason := Reason{
			HighDF:      s.DFPercent > thresholds.DFPercent,
			HighEntropy: s.CatEntropy > thresholds.CatEntropy,
			DFPercent:   s.DFPercent,
			CatEntropy:  s.CatEntropy,
		}
		if !reason.HighDF || !reason.HighEntropy {
			continue
		}

		candidates = append(candidates, Candidate{
			Token:  s.Token,
			Reason: reason,
			Score:  (s.DFPercent/100.0 + s.CatEntropy) / 2.0,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].Token < candidates[j].Token
		}
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
