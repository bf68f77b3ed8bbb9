// Package vectorize maps normalized documents to TF-IDF weighted sparse
// vectors over a vocabulary learned from training text.
package vectorize

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/topical/pkg/topical/internalerr"
)

// Norm names the per-document normalization applied after IDF weighting.
const (
	NormL2   = "l2"
	NormNone = "none"
)

// parallelThreshold is the batch size below which TransformAll stays sequential.
const parallelThreshold = 256

// Options configures vocabulary selection and weighting.
type Options struct {
	MinDF       int     `yaml:"min_df" toml:"min_df" json:"min_df"`
	MaxDFRatio  float64 `yaml:"max_df_ratio" toml:"max_df_ratio" json:"max_df_ratio"`
	SublinearTF bool    `yaml:"sublinear_tf" toml:"sublinear_tf" json:"sublinear_tf"`
	SmoothIDF   bool    `yaml:"smooth_idf" toml:"smooth_idf" json:"smooth_idf"`
	Norm        string  `yaml:"norm" toml:"norm" json:"norm"`
}

// DefaultOptions mirrors the common TF-IDF defaults: every term kept,
// smoothed IDF, raw term counts and L2 normalization.
func DefaultOptions() Options {
	return Options{
		MinDF:      1,
		MaxDFRatio: 1.0,
		SmoothIDF:  true,
		Norm:       NormL2,
	}
}

// Validate reports option values that cannot be fitted.
func (o Options) Validate() error {
	if o.MinDF < 1 {
		return fmt.Errorf("%w: min_df must be >= 1, got %d", internalerr.ErrInvalidConfig, o.MinDF)
	}
	if o.MaxDFRatio <= 0 || o.MaxDFRatio > 1 {
		return fmt.Errorf("%w: max_df_ratio must be in (0,1], got %v", internalerr.ErrInvalidConfig, o.MaxDFRatio)
	}
	if o.Norm != NormL2 && o.Norm != NormNone {
		return fmt.Errorf("%w: unknown norm %q", internalerr.ErrInvalidConfig, o.Norm)
	}
	return nil
}

// Tfidf converts normalized text to TF-IDF weighted vectors.
// After Fit the vocabulary and IDF weights are frozen; Transform never
// extends them, so unseen terms are ignored.
type Tfidf struct {
	opts  Options
	vocab map[string]int
	terms []string
	idf   []float64
}

// New creates an unfitted vectorizer.
func New(opts Options) *Tfidf {
	return &Tfidf{opts: opts}
}

// Restore rebuilds a fitted vectorizer from persisted terms and IDF weights.
func Restore(opts Options, terms []string, idf []float64) (*Tfidf, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(terms) == 0 || len(terms) != len(idf) {
		return nil, fmt.Errorf("%w: %d terms, %d idf weights", internalerr.ErrInvalidInput, len(terms), len(idf))
	}
	v := &Tfidf{
		opts:  opts,
		vocab: make(map[string]int, len(terms)),
		terms: append([]string(nil), terms...),
		idf:   append([]float64(nil), idf...),
	}
	for i, term := range v.terms {
		if _, dup := v.vocab[term]; dup {
			return nil, fmt.Errorf("%w: duplicate term %q", internalerr.ErrInvalidInput, term)
		}
		v.vocab[term] = i
	}
	return v, nil
}

// Fit learns the vocabulary and IDF weights from a corpus of normalized,
// space-separated documents. A second Fit replaces all learned state.
func (v *Tfidf) Fit(docs []string) error {
	if err := v.opts.Validate(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("fit vectorizer: %w", internalerr.ErrEmptyCorpus)
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range strings.Fields(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	n := float64(len(docs))
	maxDF := int(math.Floor(v.opts.MaxDFRatio * n))
	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count < v.opts.MinDF || count > maxDF {
			continue
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return fmt.Errorf("fit vectorizer: no terms left after document-frequency filtering: %w", internalerr.ErrEmptyCorpus)
	}
	// Sort terms for deterministic column ordering
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		d := float64(df[term])
		if v.opts.SmoothIDF {
			idf[i] = math.Log((1+n)/(1+d)) + 1
		} else {
			idf[i] = math.Log(n/d) + 1
		}
	}

	v.vocab, v.terms, v.idf = vocab, terms, idf
	return nil
}

// Fitted reports whether a vocabulary has been learned.
func (v *Tfidf) Fitted() bool { return len(v.terms) > 0 }

// Transform converts one normalized document to a TF-IDF vector.
func (v *Tfidf) Transform(doc string) (SparseVector, error) {
	if !v.Fitted() {
		return SparseVector{}, internalerr.ErrNotFitted
	}
	return v.transform(doc), nil
}

// TransformAll converts a batch, preserving input order. Large batches are
// split across goroutines; the vocabulary is only read.
func (v *Tfidf) TransformAll(ctx context.Context, docs []string) ([]SparseVector, error) {
	if !v.Fitted() {
		return nil, internalerr.ErrNotFitted
	}
	out := make([]SparseVector, len(docs))
	if len(docs) < parallelThreshold {
		for i, doc := range docs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = v.transform(doc)
		}
		return out, nil
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(docs) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(docs); start += chunk {
		start, end := start, min(start+chunk, len(docs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[i] = v.transform(docs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FitTransform fits on docs and returns their vectors.
func (v *Tfidf) FitTransform(ctx context.Context, docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.TransformAll(ctx, docs)
}

func (v *Tfidf) transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, tok := range strings.Fields(doc) {
		if idx, ok := v.vocab[tok]; ok {
			counts[idx]++
		}
	}

	for idx, tf := range counts {
		if v.opts.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		counts[idx] = tf * v.idf[idx]
	}

	sv := NewSparseVector(len(v.terms), counts)
	if v.opts.Norm == NormL2 {
		if norm := sv.L2Norm(); norm > 0 {
			for i := range sv.Values {
				sv.Values[i] /= norm
			}
		}
	}
	return sv
}

// VocabSize returns the number of learned terms.
func (v *Tfidf) VocabSize() int { return len(v.terms) }

// Index returns the column of term.
func (v *Tfidf) Index(term string) (int, bool) {
	idx, ok := v.vocab[term]
	return idx, ok
}

// Terms returns a copy of the vocabulary in column order.
func (v *Tfidf) Terms() []string { return append([]string(nil), v.terms...) }

// IDF returns a copy of the IDF weights in column order.
func (v *Tfidf) IDF() []float64 { return append([]float64(nil), v.idf...) }

// Options returns the options the vectorizer was built with.
func (v *Tfidf) Options() Options { return v.opts }
