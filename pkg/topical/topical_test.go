package topical

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/topical/pkg/topical/corpus"
	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/metrics"
	"github.com/cognicore/topical/pkg/topical/normalize"
	"github.com/cognicore/topical/pkg/topical/stoplist"
	"github.com/cognicore/topical/pkg/topical/store"
	"github.com/cognicore/topical/pkg/topical/store/memstore"
	"github.com/cognicore/topical/pkg/topical/store/sqlite"
	"github.com/cognicore/topical/pkg/topical/vectorize"
)

var categories = []string{"alt.atheism", "soc.religion.christian", "comp.graphics", "sci.med"}

const (
	medicalSample   = "Medical science has made great strides in the treatment of cancer."
	christianSample = "Christianity is based on the teachings of Jesus Christ."
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logrus.NewEntry(logger)
}

func loadFixture(t *testing.T, split string) corpus.Dataset {
	t.Helper()
	l := corpus.NewDirLoader(filepath.Join("testdata", "20news-mini"), quietLogger())
	ds, err := l.Load(context.Background(), split, categories)
	require.NoError(t, err)
	return ds
}

func fitFixture(t *testing.T) (*Pipeline, *Model) {
	t.Helper()
	p := New(Options{Logger: quietLogger()})
	m, err := p.FitDataset(context.Background(), loadFixture(t, corpus.SplitTrain))
	require.NoError(t, err)
	return p, m
}

func TestPredictSampleSentences(t *testing.T) {
	p, _ := fitFixture(t)

	got, err := p.PredictCategories(context.Background(), []string{medicalSample, christianSample})
	require.NoError(t, err)
	assert.Equal(t, []string{"sci.med", "soc.religion.christian"}, got)
}

func TestEvaluateHeldOutAccuracy(t *testing.T) {
	p, _ := fitFixture(t)

	report, err := p.Evaluate(context.Background(), loadFixture(t, corpus.SplitTest))
	require.NoError(t, err)
	assert.Greater(t, report.Accuracy, 0.85, "report:\n%s", report)
	assert.Equal(t, 12, report.Total)
	assert.Len(t, report.Confusion, 4)
}

func TestModelState(t *testing.T) {
	_, m := fitFixture(t)

	assert.Len(t, m.ID, 26, "ULID string")
	assert.Equal(t, []string{"alt.atheism", "comp.graphics", "sci.med", "soc.religion.christian"}, m.Categories)
	assert.Equal(t, 24, m.TrainDocs)
	assert.Contains(t, m.Stopwords, "the")
	assert.Greater(t, m.VocabSize(), 100)

	top, err := m.TopTerms("sci.med", 10)
	require.NoError(t, err)
	assert.Len(t, top, 10)
	medicalTerms := map[string]bool{"medical": true, "patients": true, "doctors": true, "treatment": true, "cancer": true}
	found := false
	for _, term := range top {
		found = found || medicalTerms[term]
	}
	assert.True(t, found, "top sci.med terms: %v", top)

	_, err = m.TopTerms("rec.autos", 3)
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestPredictBeforeFit(t *testing.T) {
	p := New(Options{Logger: quietLogger()})
	ctx := context.Background()

	_, err := p.Predict(ctx, []string{"anything"})
	assert.ErrorIs(t, err, internalerr.ErrNotFitted)
	_, err = p.PredictCategories(ctx, []string{"anything"})
	assert.ErrorIs(t, err, internalerr.ErrNotFitted)
	_, err = p.PredictProba(ctx, []string{"anything"})
	assert.ErrorIs(t, err, internalerr.ErrNotFitted)
	_, err = p.Evaluate(ctx, corpus.Dataset{})
	assert.ErrorIs(t, err, internalerr.ErrNotFitted)
	assert.Nil(t, p.Model())
}

func TestFitErrors(t *testing.T) {
	p := New(Options{Logger: quietLogger()})
	ctx := context.Background()
	cats := []string{"a", "b"}

	_, err := p.Fit(ctx, nil, nil, cats)
	assert.ErrorIs(t, err, internalerr.ErrEmptyCorpus)

	_, err = p.Fit(ctx, []string{"graphics card"}, []int{0, 1}, cats)
	assert.ErrorIs(t, err, internalerr.ErrLengthMismatch)

	_, err = p.Fit(ctx, []string{"graphics card"}, []int{2}, cats)
	assert.ErrorIs(t, err, internalerr.ErrLabelOutOfRange)

	_, err = p.Fit(ctx, []string{"graphics card"}, []int{0}, nil)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	// every document normalizes to nothing
	_, err = p.Fit(ctx, []string{"the of and", "123 !!!"}, []int{0, 1}, cats)
	assert.ErrorIs(t, err, internalerr.ErrEmptyCorpus)

	_, err = New(Options{Alpha: -1, Logger: quietLogger()}).Fit(ctx, []string{"graphics"}, []int{0}, cats)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)

	assert.Nil(t, p.Model(), "failed fits must not install a model")
}

func TestVocabularyFrozenAfterFit(t *testing.T) {
	p, m := fitFixture(t)
	before := m.Terms()

	_, err := p.Predict(context.Background(), []string{"zeppelin quasar xylophone", ""})
	require.NoError(t, err)
	assert.Equal(t, before, m.Terms())
}

func TestRefitReplacesModel(t *testing.T) {
	p, first := fitFixture(t)

	second, err := p.Fit(context.Background(),
		[]string{"graphics card rendering", "cancer treatment doctor"},
		[]int{0, 1},
		[]string{"comp.graphics", "sci.med"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Same(t, second, p.Model())
	assert.Equal(t, 6, second.VocabSize())

	got, err := p.PredictCategories(context.Background(), []string{"a new graphics card"})
	require.NoError(t, err)
	assert.Equal(t, []string{"comp.graphics"}, got)
}

func TestPredictProba(t *testing.T) {
	p, m := fitFixture(t)
	docs := []string{medicalSample, christianSample, "", "polygon rendering on the graphics card"}

	proba, err := p.PredictProba(context.Background(), docs)
	require.NoError(t, err)
	labels, err := p.Predict(context.Background(), docs)
	require.NoError(t, err)

	for i, row := range proba {
		require.Len(t, row, len(m.Categories))
		var sum float64
		best := 0
		for c, v := range row {
			sum += v
			if v > row[best] {
				best = c
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.Equal(t, labels[i], best)
	}
}

func TestStopwordEditsAfterFit(t *testing.T) {
	p, _ := fitFixture(t)

	before, err := p.PredictProba(context.Background(), []string{medicalSample})
	require.NoError(t, err)

	p.Normalizer().AddStopword("medical")
	p.Normalizer().AddStopword("cancer")

	after, err := p.PredictProba(context.Background(), []string{medicalSample})
	require.NoError(t, err)
	assert.Equal(t, before, after, "predictions use the stopwords recorded at fit time")
}

func TestCustomOptions(t *testing.T) {
	opts := vectorize.DefaultOptions()
	opts.SublinearTF = true
	opts.MinDF = 2
	p := New(Options{
		Normalizer:   normalize.New(append(stoplist.English(), "subject", "organization", "lines")),
		Vectorizer:   &opts,
		Alpha:        0.1,
		UniformPrior: true,
		Logger:       quietLogger(),
	})
	m, err := p.FitDataset(context.Background(), loadFixture(t, corpus.SplitTrain))
	require.NoError(t, err)
	assert.NotContains(t, m.Terms(), "subject")

	got, err := p.PredictCategories(context.Background(), []string{medicalSample, christianSample})
	require.NoError(t, err)
	assert.Equal(t, []string{"sci.med", "soc.religion.christian"}, got)
}

func TestEvaluateMatchesCategoriesByName(t *testing.T) {
	p, _ := fitFixture(t)

	ds := corpus.Dataset{
		Docs:       []string{"cancer patients and their doctors", "rendering polygons with a graphics card"},
		Labels:     []int{1, 0},
		Categories: []string{"comp.graphics", "sci.med"},
	}
	report, err := p.Evaluate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Accuracy)

	ds.Categories = []string{"comp.graphics", "rec.autos"}
	_, err = p.Evaluate(context.Background(), ds)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	ds.Labels = []int{0}
	_, err = p.Evaluate(context.Background(), ds)
	assert.ErrorIs(t, err, internalerr.ErrLengthMismatch)
}

func TestConcurrentPrediction(t *testing.T) {
	p, _ := fitFixture(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.PredictCategories(context.Background(), []string{medicalSample})
			if err != nil {
				errs <- err
				return
			}
			if got[0] != "sci.med" {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestModelPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, m := fitFixture(t)

	rec, err := m.Record()
	require.NoError(t, err)

	sqliteStore, err := sqlite.OpenSQLite(ctx, filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	defer sqliteStore.Close()

	for name, st := range map[string]store.Store{
		"memstore": memstore.New(),
		"sqlite":   sqliteStore,
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.SaveModel(ctx, rec))
			loaded, err := st.GetModel(ctx, m.ID)
			require.NoError(t, err)

			restoredModel, err := ModelFromRecord(loaded)
			require.NoError(t, err)
			restored := Restore(restoredModel, quietLogger())

			original := Restore(m, quietLogger())
			docs := []string{medicalSample, christianSample, "a graphics card renders polygons"}
			want, err := original.PredictProba(ctx, docs)
			require.NoError(t, err)
			got, err := restored.PredictProba(ctx, docs)
			require.NoError(t, err)
			for i := range want {
				assert.InDeltaSlice(t, want[i], got[i], 1e-12)
			}
			assert.Equal(t, m.Categories, restoredModel.Categories)
			assert.Equal(t, m.Stopwords, restoredModel.Stopwords)
		})
	}
}

func TestModelFromRecordErrors(t *testing.T) {
	_, m := fitFixture(t)
	rec, err := m.Record()
	require.NoError(t, err)

	bad := rec
	bad.Categories = bad.Categories[:2]
	_, err = ModelFromRecord(bad)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	bad = rec
	bad.OptionsJSON = "{"
	_, err = ModelFromRecord(bad)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	bad = rec
	bad.Terms = bad.Terms[:1]
	bad.IDF = bad.IDF[:1]
	_, err = ModelFromRecord(bad)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestNewRun(t *testing.T) {
	report, err := metrics.ClassificationReport([]int{0, 1}, []int{0, 0}, []string{"a", "b"})
	require.NoError(t, err)

	run, err := NewRun("01MODEL", corpus.SplitTest, report)
	require.NoError(t, err)
	assert.Equal(t, "01MODEL", run.ModelID)
	assert.Equal(t, 0.5, run.Accuracy)
	assert.NotEmpty(t, run.ID)

	var decoded metrics.Report
	require.NoError(t, json.Unmarshal([]byte(run.ReportJSON), &decoded))
	assert.Equal(t, report, decoded)
}

func TestNewIDIsMonotonic(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestSuggestStopwords(t *testing.T) {
	p := New(Options{Logger: quietLogger()})
	ds := loadFixture(t, corpus.SplitTrain)

	candidates := SuggestStopwords(p.Normalizer(), ds, stoplist.NewManager(stoplist.English()), stoplist.DefaultThresholds())
	tokens := make([]string, 0, len(candidates))
	for _, c := range candidates {
		tokens = append(tokens, c.Token)
	}
	assert.Subset(t, tokens, []string{"subject", "organization", "lines"})
	assert.NotContains(t, tokens, "medical")
	assert.NotContains(t, tokens, "jesus")
}
