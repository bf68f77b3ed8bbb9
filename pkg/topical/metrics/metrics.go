// Package metrics scores predicted labels against ground truth.
package metrics

import (
	"fmt"

	"github.com/cognicore/topical/pkg/topical/internalerr"
)

// ClassScore holds the per-class figures of a classification report.
type ClassScore struct {
	Name      string  `json:"name"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a classification report over one labeled split.
type Report struct {
	Classes     []ClassScore `json:"classes"`
	Accuracy    float64      `json:"accuracy"`
	MacroAvg    ClassScore   `json:"macro_avg"`
	WeightedAvg ClassScore   `json:"weighted_avg"`
	Confusion   [][]int      `json:"confusion"`
	Total       int          `json:"total"`
}

// Accuracy returns the fraction of exact matches. Empty input scores 0.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("accuracy: %d true, %d predicted: %w", len(yTrue), len(yPred), internalerr.ErrLengthMismatch)
	}
	if len(yTrue) == 0 {
		return 0, nil
	}
	var hits int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue)), nil
}

// ConfusionMatrix counts (true, predicted) pairs; rows are true labels.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) ([][]int, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("confusion matrix: %d true, %d predicted: %w", len(yTrue), len(yPred), internalerr.ErrLengthMismatch)
	}
	m := make([][]int, numClasses)
	for i := range m {
		m[i] = make([]int, numClasses)
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= numClasses || p < 0 || p >= numClasses {
			return nil, fmt.Errorf("confusion matrix: pair (%d,%d) at %d: %w", t, p, i, internalerr.ErrLabelOutOfRange)
		}
		m[t][p]++
	}
	return m, nil
}

// ClassificationReport computes per-class precision, recall, F1 and support
// plus macro and support-weighted averages. Ratios with a zero denominator
// are reported as 0.
func ClassificationReport(yTrue, yPred []int, categories []string) (Report, error) {
	confusion, err := ConfusionMatrix(yTrue, yPred, len(categories))
	if err != nil {
		return Report{}, err
	}
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}

	k := len(categories)
	report := Report{
		Classes:   make([]ClassScore, k),
		Accuracy:  acc,
		Confusion: confusion,
		Total:     len(yTrue),
	}

	for c := 0; c < k; c++ {
		var tp, predicted, support int
		tp = confusion[c][c]
		for o := 0; o < k; o++ {
			predicted += confusion[o][c]
			support += confusion[c][o]
		}
		precision := ratio(tp, predicted)
		recall := ratio(tp, support)
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		report.Classes[c] = ClassScore{
			Name:      categories[c],
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
	}

	report.MacroAvg = ClassScore{Name: "macro avg", Support: report.Total}
	report.WeightedAvg = ClassScore{Name: "weighted avg", Support: report.Total}
	if k == 0 {
		return report, nil
	}
	for _, cs := range report.Classes {
		report.MacroAvg.Precision += cs.Precision / float64(k)
		report.MacroAvg.Recall += cs.Recall / float64(k)
		report.MacroAvg.F1 += cs.F1 / float64(k)
		if report.Total > 0 {
			w := float64(cs.Support) / float64(report.Total)
			report.WeightedAvg.Precision += cs.Precision * w
			report.WeightedAvg.Recall += cs.Recall * w
			report.WeightedAvg.F1 += cs.F1 * w
		}
	}
	return report, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
