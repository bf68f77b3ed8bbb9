package topical

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/topical/pkg/topical/bayes"
	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/metrics"
	"github.com/cognicore/topical/pkg/topical/normalize"
	"github.com/cognicore/topical/pkg/topical/store"
	"github.com/cognicore/topical/pkg/topical/vectorize"
)

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new ULID string. IDs created by one process sort in
// creation order.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), idEntropy).String()
}

// Model is a fitted pipeline state: the stopwords used, the vectorizer
// vocabulary and IDF weights, and the classifier parameters.
// It is read-only after creation and safe for concurrent prediction.
type Model struct {
	ID         string
	CreatedAt  time.Time
	Categories []string
	Stopwords  []string
	TrainDocs  int

	normalizer *normalize.Normalizer
	vectorizer *vectorize.Tfidf
	classifier *bayes.Multinomial
}

// VocabSize returns the number of vocabulary terms.
func (m *Model) VocabSize() int { return m.vectorizer.VocabSize() }

// Terms returns the vocabulary in column order.
func (m *Model) Terms() []string { return m.vectorizer.Terms() }

// TopTerms returns the n terms with the highest log probability for a class.
func (m *Model) TopTerms(category string, n int) ([]string, error) {
	class := -1
	for i, cat := range m.Categories {
		if cat == category {
			class = i
			break
		}
	}
	if class < 0 {
		return nil, fmt.Errorf("category %q: %w", category, internalerr.ErrNotFound)
	}

	flp := m.classifier.FeatureLogProb()[class]
	terms := m.vectorizer.Terms()
	idx := make([]int, len(terms))
	for i := range idx {
		idx[i] = i
	}
	// ties keep column order
	sort.SliceStable(idx, func(a, b int) bool { return flp[idx[a]] > flp[idx[b]] })
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = terms[idx[i]]
	}
	return out, nil
}

// Record converts the model to its persisted form.
func (m *Model) Record() (store.Model, error) {
	opts, err := json.Marshal(m.vectorizer.Options())
	if err != nil {
		return store.Model{}, fmt.Errorf("encode vectorizer options: %w", err)
	}
	return store.Model{
		ID:             m.ID,
		CreatedAt:      m.CreatedAt,
		Categories:     append([]string(nil), m.Categories...),
		Stopwords:      append([]string(nil), m.Stopwords...),
		OptionsJSON:    string(opts),
		TrainDocs:      m.TrainDocs,
		Terms:          m.vectorizer.Terms(),
		IDF:            m.vectorizer.IDF(),
		Alpha:          m.classifier.Alpha,
		FitPrior:       m.classifier.FitPrior,
		ClassCount:     m.classifier.ClassCount(),
		ClassLogPrior:  m.classifier.ClassLogPrior(),
		FeatureLogProb: m.classifier.FeatureLogProb(),
	}, nil
}

// ModelFromRecord rebuilds a model from its persisted form.
func ModelFromRecord(rec store.Model) (*Model, error) {
	opts := vectorize.DefaultOptions()
	if rec.OptionsJSON != "" {
		if err := json.Unmarshal([]byte(rec.OptionsJSON), &opts); err != nil {
			return nil, fmt.Errorf("%w: vectorizer options of model %s: %v", internalerr.ErrInvalidInput, rec.ID, err)
		}
	}

	vec, err := vectorize.Restore(opts, rec.Terms, rec.IDF)
	if err != nil {
		return nil, fmt.Errorf("restore vectorizer of model %s: %w", rec.ID, err)
	}
	clf, err := bayes.Restore(rec.Alpha, rec.FitPrior, rec.ClassCount, rec.ClassLogPrior, rec.FeatureLogProb)
	if err != nil {
		return nil, fmt.Errorf("restore classifier of model %s: %w", rec.ID, err)
	}
	if clf.NumClasses() != len(rec.Categories) {
		return nil, fmt.Errorf("%w: model %s has %d categories and %d classes", internalerr.ErrInvalidInput, rec.ID, len(rec.Categories), clf.NumClasses())
	}
	if clf.NumFeatures() != vec.VocabSize() {
		return nil, fmt.Errorf("%w: model %s has %d terms and %d features", internalerr.ErrInvalidInput, rec.ID, vec.VocabSize(), clf.NumFeatures())
	}

	return &Model{
		ID:         rec.ID,
		CreatedAt:  rec.CreatedAt,
		Categories: append([]string(nil), rec.Categories...),
		Stopwords:  append([]string(nil), rec.Stopwords...),
		TrainDocs:  rec.TrainDocs,
		normalizer: normalize.New(rec.Stopwords),
		vectorizer: vec,
		classifier: clf,
	}, nil
}

// NewRun packages an evaluation report for persistence.
func NewRun(modelID, split string, report metrics.Report) (store.Run, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return store.Run{}, fmt.Errorf("encode report: %w", err)
	}
	return store.Run{
		ID:         NewID(),
		ModelID:    modelID,
		Split:      split,
		CreatedAt:  time.Now().UTC(),
		Accuracy:   report.Accuracy,
		ReportJSON: string(data),
		Confusion:  report.Confusion,
	}, nil
}
