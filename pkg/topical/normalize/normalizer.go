// Package normalize turns raw documents into space-joined streams of
// lowercase alphabetic tokens with stopwords removed.
package normalize

import (
	"sort"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalizer handles tokenization and stopword filtering.
// It holds no per-document state; a configured Normalizer may be shared.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New creates a normalizer with the given stopword list.
// Stopwords are matched case-insensitively and in the same punctuation-free
// form as tokens, so "don't" also filters "dont".
func New(stopwords []string) *Normalizer {
	n := &Normalizer{stopwords: make(map[string]struct{}, len(stopwords))}
	for _, w := range stopwords {
		n.AddStopword(w)
	}
	return n
}

// Normalize returns the cleaned tokens of text joined by single spaces.
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Tokens(text), " ")
}

// NormalizeAll normalizes a batch of documents, preserving order.
func (n *Normalizer) NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n.Normalize(t)
	}
	return out
}

// Tokens splits text on Unicode word boundaries and returns the tokens that
// survive lowercasing, punctuation stripping, the alphabetic check and the
// stopword filter, in document order.
func (n *Normalizer) Tokens(text string) []string {
	if text == "" {
		return nil
	}

	// Casers carry state and are not safe for concurrent use.
	lower := cases.Lower(language.English)

	var tokens []string
	segments := words.FromString(norm.NFKC.String(text))
	for segments.Next() {
		word := n.processToken(lower.String(segments.Value()))
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// processToken applies punctuation stripping, the alphabetic check and
// stopword filtering to one lowercased segment.
func (n *Normalizer) processToken(token string) string {
	word := stripPunctuation(token)
	if word == "" || !isAlphabetic(word) {
		return ""
	}
	if n.isStopword(word) {
		return ""
	}
	return word
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func (n *Normalizer) isStopword(word string) bool {
	_, ok := n.stopwords[word]
	return ok
}

// AddStopword adds a word to the stopword set
func (n *Normalizer) AddStopword(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	n.stopwords[word] = struct{}{}
	if stripped := stripPunctuation(word); stripped != "" && stripped != word {
		n.stopwords[stripped] = struct{}{}
	}
}

// RemoveStopword removes a word (and its punctuation-free form) from the set
func (n *Normalizer) RemoveStopword(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	delete(n.stopwords, word)
	delete(n.stopwords, stripPunctuation(word))
}

// Stopwords returns the effective stopword set in lexical order.
func (n *Normalizer) Stopwords() []string {
	out := make([]string, 0, len(n.stopwords))
	for w := range n.stopwords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
