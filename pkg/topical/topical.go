// Package topical classifies newsgroup-style documents into named
// categories with a normalize → TF-IDF → multinomial Naive Bayes pipeline.
package topical

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/topical/pkg/topical/bayes"
	"github.com/cognicore/topical/pkg/topical/corpus"
	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/metrics"
	"github.com/cognicore/topical/pkg/topical/normalize"
	"github.com/cognicore/topical/pkg/topical/stoplist"
	"github.com/cognicore/topical/pkg/topical/vectorize"
)

// Pipeline fits and applies the text classification pipeline.
// Fit and Predict are meant to be called sequentially by one caller;
// the fitted Model itself is read-only.
type Pipeline struct {
	normalizer *normalize.Normalizer
	vecOpts    vectorize.Options
	alpha      float64
	fitPrior   bool
	logger     *logrus.Entry

	model *Model
}

// Options configures a Pipeline. Zero fields take defaults.
type Options struct {
	Normalizer   *normalize.Normalizer // nil: built-in English stopwords
	Vectorizer   *vectorize.Options    // nil: vectorize.DefaultOptions
	Alpha        float64               // 0: bayes.DefaultAlpha
	UniformPrior bool
	Logger       *logrus.Entry
}

// New creates an unfitted pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		normalizer: opts.Normalizer,
		vecOpts:    vectorize.DefaultOptions(),
		alpha:      opts.Alpha,
		fitPrior:   !opts.UniformPrior,
		logger:     opts.Logger,
	}
	if p.normalizer == nil {
		p.normalizer = normalize.New(stoplist.English())
	}
	if opts.Vectorizer != nil {
		p.vecOpts = *opts.Vectorizer
	}
	if p.alpha == 0 {
		p.alpha = bayes.DefaultAlpha
	}
	if p.logger == nil {
		p.logger = logrus.WithField("component", "pipeline")
	}
	return p
}

// Restore builds a fitted pipeline around a persisted model.
func Restore(m *Model, logger *logrus.Entry) *Pipeline {
	opts := m.vectorizer.Options()
	p := New(Options{
		Normalizer:   normalize.New(m.Stopwords),
		Vectorizer:   &opts,
		Alpha:        m.classifier.Alpha,
		UniformPrior: !m.classifier.FitPrior,
		Logger:       logger,
	})
	p.model = m
	return p
}

// Normalizer returns the pipeline's text normalizer.
func (p *Pipeline) Normalizer() *normalize.Normalizer { return p.normalizer }

// Model returns the fitted model, or nil before Fit.
func (p *Pipeline) Model() *Model { return p.model }

// Fit normalizes the training documents, learns the vocabulary and IDF
// weights, and trains the classifier. A successful Fit replaces any
// previous model as a whole; a failed one leaves it untouched.
func (p *Pipeline) Fit(ctx context.Context, docs []string, labels []int, categories []string) (*Model, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("fit: %w", internalerr.ErrEmptyCorpus)
	}
	if len(docs) != len(labels) {
		return nil, fmt.Errorf("fit: %d docs, %d labels: %w", len(docs), len(labels), internalerr.ErrLengthMismatch)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: fit needs at least one category", internalerr.ErrInvalidInput)
	}
	for i, l := range labels {
		if l < 0 || l >= len(categories) {
			return nil, fmt.Errorf("fit: label %d for doc %d: %w", l, i, internalerr.ErrLabelOutOfRange)
		}
	}

	start := time.Now()
	normalized := p.normalizer.NormalizeAll(docs)

	vec := vectorize.New(p.vecOpts)
	x, err := vec.FitTransform(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}

	clf := bayes.New(p.alpha, p.fitPrior)
	if err := clf.Fit(x, labels, len(categories)); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	stopwords := p.normalizer.Stopwords()
	m := &Model{
		ID:         NewID(),
		CreatedAt:  time.Now().UTC(),
		Categories: append([]string(nil), categories...),
		Stopwords:  stopwords,
		TrainDocs:  len(docs),
		normalizer: normalize.New(stopwords),
		vectorizer: vec,
		classifier: clf,
	}
	p.model = m

	p.logger.WithFields(logrus.Fields{
		"model":    m.ID,
		"docs":     len(docs),
		"vocab":    vec.VocabSize(),
		"classes":  len(categories),
		"duration": time.Since(start).String(),
	}).Debug("Fitted pipeline")
	return m, nil
}

// FitDataset fits on a loaded corpus split.
func (p *Pipeline) FitDataset(ctx context.Context, ds corpus.Dataset) (*Model, error) {
	return p.Fit(ctx, ds.Docs, ds.Labels, ds.Categories)
}

// Predict returns one label per document, using only fitted state.
func (p *Pipeline) Predict(ctx context.Context, docs []string) ([]int, error) {
	x, err := p.transform(ctx, docs)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(x))
	for i, v := range x {
		label, err := p.model.classifier.Predict(v)
		if err != nil {
			return nil, fmt.Errorf("predict doc %d: %w", i, err)
		}
		out[i] = label
	}
	return out, nil
}

// PredictCategories returns one category name per document.
func (p *Pipeline) PredictCategories(ctx context.Context, docs []string) ([]string, error) {
	labels, err := p.Predict(ctx, docs)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = p.model.Categories[l]
	}
	return names, nil
}

// PredictProba returns per-class posterior probabilities per document,
// in the order of Model.Categories.
func (p *Pipeline) PredictProba(ctx context.Context, docs []string) ([][]float64, error) {
	x, err := p.transform(ctx, docs)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, v := range x {
		proba, err := p.model.classifier.PredictProba(v)
		if err != nil {
			return nil, fmt.Errorf("predict doc %d: %w", i, err)
		}
		out[i] = proba
	}
	return out, nil
}

// Evaluate predicts a labeled split and scores it. Dataset labels are
// matched to the model by category name.
func (p *Pipeline) Evaluate(ctx context.Context, ds corpus.Dataset) (metrics.Report, error) {
	if p.model == nil {
		return metrics.Report{}, internalerr.ErrNotFitted
	}
	if err := ds.Validate(); err != nil {
		return metrics.Report{}, err
	}

	index := make(map[string]int, len(p.model.Categories))
	for i, cat := range p.model.Categories {
		index[cat] = i
	}
	yTrue := make([]int, len(ds.Labels))
	for i, l := range ds.Labels {
		modelLabel, ok := index[ds.Categories[l]]
		if !ok {
			return metrics.Report{}, fmt.Errorf("%w: category %q is unknown to model %s", internalerr.ErrInvalidInput, ds.Categories[l], p.model.ID)
		}
		yTrue[i] = modelLabel
	}

	yPred, err := p.Predict(ctx, ds.Docs)
	if err != nil {
		return metrics.Report{}, err
	}
	report, err := metrics.ClassificationReport(yTrue, yPred, p.model.Categories)
	if err != nil {
		return metrics.Report{}, err
	}

	p.logger.WithFields(logrus.Fields{
		"model":    p.model.ID,
		"docs":     ds.Len(),
		"accuracy": report.Accuracy,
	}).Debug("Evaluated pipeline")
	return report, nil
}

func (p *Pipeline) transform(ctx context.Context, docs []string) ([]vectorize.SparseVector, error) {
	if p.model == nil {
		return nil, internalerr.ErrNotFitted
	}
	// stopwords as recorded at fit time
	return p.model.vectorizer.TransformAll(ctx, p.model.normalizer.NormalizeAll(docs))
}
