// Package bayes implements a multinomial Naive Bayes classifier over
// sparse, non-negative feature vectors.
package bayes

import (
	"fmt"
	"math"

	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/vectorize"
)

// DefaultAlpha is the additive (Laplace) smoothing constant.
const DefaultAlpha = 1.0

// Multinomial holds per-class priors and term likelihoods in log space.
type Multinomial struct {
	Alpha    float64
	FitPrior bool

	classCount     []float64   // documents per class
	classLogPrior  []float64   // ln P(c)
	featureLogProb [][]float64 // ln P(t|c), indexed [class][term]
}

// New creates an unfitted classifier. Alpha is checked at Fit time.
func New(alpha float64, fitPrior bool) *Multinomial {
	return &Multinomial{Alpha: alpha, FitPrior: fitPrior}
}

// Validate rejects unusable smoothing.
func (m *Multinomial) Validate() error {
	if m.Alpha <= 0 || math.IsNaN(m.Alpha) || math.IsInf(m.Alpha, 0) {
		return fmt.Errorf("%w: alpha must be > 0, got %v", internalerr.ErrInvalidConfig, m.Alpha)
	}
	return nil
}

// Fit estimates class priors and smoothed term likelihoods.
// Labels must lie in [0, numClasses).
func (m *Multinomial) Fit(x []vectorize.SparseVector, y []int, numClasses int) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if len(x) == 0 {
		return fmt.Errorf("fit classifier: %w", internalerr.ErrEmptyCorpus)
	}
	if len(x) != len(y) {
		return fmt.Errorf("fit classifier: %d vectors, %d labels: %w", len(x), len(y), internalerr.ErrLengthMismatch)
	}
	if numClasses < 1 {
		return fmt.Errorf("%w: need at least one class", internalerr.ErrInvalidInput)
	}

	dim := x[0].Dim
	classCount := make([]float64, numClasses)
	featureCount := make([][]float64, numClasses)
	for c := range featureCount {
		featureCount[c] = make([]float64, dim)
	}

	for i, vec := range x {
		label := y[i]
		if label < 0 || label >= numClasses {
			return fmt.Errorf("fit classifier: label %d at row %d: %w", label, i, internalerr.ErrLabelOutOfRange)
		}
		if vec.Dim != dim {
			return fmt.Errorf("%w: row %d has dim %d, want %d", internalerr.ErrInvalidInput, i, vec.Dim, dim)
		}
		classCount[label]++
		for j, idx := range vec.Indices {
			v := vec.Values[j]
			if v < 0 {
				return fmt.Errorf("%w: negative feature %v at row %d", internalerr.ErrInvalidInput, v, i)
			}
			featureCount[label][idx] += v
		}
	}

	featureLogProb := make([][]float64, numClasses)
	for c := range featureCount {
		var total float64
		for _, fc := range featureCount[c] {
			total += fc + m.Alpha
		}
		logTotal := math.Log(total)
		row := make([]float64, dim)
		for t, fc := range featureCount[c] {
			row[t] = math.Log(fc+m.Alpha) - logTotal
		}
		featureLogProb[c] = row
	}

	classLogPrior := make([]float64, numClasses)
	n := float64(len(x))
	for c := range classLogPrior {
		if m.FitPrior {
			// Empty classes get ln(0) = -Inf and are never predicted.
			classLogPrior[c] = math.Log(classCount[c] / n)
		} else {
			classLogPrior[c] = -math.Log(float64(numClasses))
		}
	}

	m.classCount = classCount
	m.classLogPrior = classLogPrior
	m.featureLogProb = featureLogProb
	return nil
}

// Restore rebuilds a fitted classifier from persisted parameters.
func Restore(alpha float64, fitPrior bool, classCount, classLogPrior []float64, featureLogProb [][]float64) (*Multinomial, error) {
	m := New(alpha, fitPrior)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	k := len(classLogPrior)
	if k == 0 || len(featureLogProb) != k || len(classCount) != k {
		return nil, fmt.Errorf("%w: inconsistent class dimensions", internalerr.ErrInvalidInput)
	}
	dim := len(featureLogProb[0])
	for c, row := range featureLogProb {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: class %d has %d features, want %d", internalerr.ErrInvalidInput, c, len(row), dim)
		}
	}
	m.classCount = append([]float64(nil), classCount...)
	m.classLogPrior = append([]float64(nil), classLogPrior...)
	m.featureLogProb = make([][]float64, k)
	for c, row := range featureLogProb {
		m.featureLogProb[c] = append([]float64(nil), row...)
	}
	return m, nil
}

// Fitted reports whether parameters have been estimated.
func (m *Multinomial) Fitted() bool { return len(m.classLogPrior) > 0 }

// NumClasses returns the number of classes seen at fit time.
func (m *Multinomial) NumClasses() int { return len(m.classLogPrior) }

// NumFeatures returns the feature dimension seen at fit time.
func (m *Multinomial) NumFeatures() int {
	if !m.Fitted() {
		return 0
	}
	return len(m.featureLogProb[0])
}

// JointLogLikelihood returns ln P(c) + Σ x_t ln P(t|c) for every class.
func (m *Multinomial) JointLogLikelihood(x vectorize.SparseVector) ([]float64, error) {
	if !m.Fitted() {
		return nil, internalerr.ErrNotFitted
	}
	if x.Dim != m.NumFeatures() {
		return nil, fmt.Errorf("%w: vector dim %d, model has %d features", internalerr.ErrInvalidInput, x.Dim, m.NumFeatures())
	}
	jll := make([]float64, len(m.classLogPrior))
	for c := range jll {
		jll[c] = m.classLogPrior[c] + x.Dot(m.featureLogProb[c])
	}
	return jll, nil
}

// Predict returns the most likely class; ties resolve to the lowest index.
func (m *Multinomial) Predict(x vectorize.SparseVector) (int, error) {
	jll, err := m.JointLogLikelihood(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(jll); c++ {
		if jll[c] > jll[best] {
			best = c
		}
	}
	return best, nil
}

// PredictProba returns posterior class probabilities summing to 1.
func (m *Multinomial) PredictProba(x vectorize.SparseVector) ([]float64, error) {
	jll, err := m.JointLogLikelihood(x)
	if err != nil {
		return nil, err
	}
	norm := logSumExp(jll)
	proba := make([]float64, len(jll))
	for c, v := range jll {
		proba[c] = math.Exp(v - norm)
	}
	return proba, nil
}

// ClassCount returns a copy of the per-class training document counts.
func (m *Multinomial) ClassCount() []float64 { return append([]float64(nil), m.classCount...) }

// ClassLogPrior returns a copy of ln P(c).
func (m *Multinomial) ClassLogPrior() []float64 { return append([]float64(nil), m.classLogPrior...) }

// FeatureLogProb returns a copy of ln P(t|c).
func (m *Multinomial) FeatureLogProb() [][]float64 {
	out := make([][]float64, len(m.featureLogProb))
	for c, row := range m.featureLogProb {
		out[c] = append([]float64(nil), row...)
	}
	return out
}

func logSumExp(xs []float64) float64 {
	maxV := math.Inf(-1)
	for _, v := range xs {
		if v > maxV {
			maxV = v
		}
	}
	if math.IsInf(maxV, -1) {
		return maxV
	}
	var sum float64
	for _, v := range xs {
		sum += math.Exp(v - maxV)
	}
	return maxV + math.Log(sum)
}
