package store

import (
	"context"
	"time"
)

// Store persists trained models and their evaluation runs.
type Store interface {
	Close() error

	// Models
	SaveModel(ctx context.Context, m Model) error
	GetModel(ctx context.Context, id string) (Model, error)
	LatestModel(ctx context.Context) (Model, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Evaluation runs
	SaveRun(ctx context.Context, r Run) error
	RunsForModel(ctx context.Context, modelID string) ([]Run, error)
}

// Model is the persisted state of a fitted pipeline.
type Model struct {
	ID          string
	CreatedAt   time.Time
	Categories  []string
	Stopwords   []string
	OptionsJSON string // JSON-encoded vectorizer options
	TrainDocs   int

	// Vectorizer state, in column order
	Terms []string
	IDF   []float64

	// Classifier state, indexed by class
	Alpha          float64
	FitPrior       bool
	ClassCount     []float64
	ClassLogPrior  []float64
	FeatureLogProb [][]float64
}

// ModelInfo summarizes a stored model for listings.
type ModelInfo struct {
	ID         string
	CreatedAt  time.Time
	Categories []string
	VocabSize  int
	TrainDocs  int
}

// Info returns the listing summary of m.
func (m Model) Info() ModelInfo {
	return ModelInfo{
		ID:         m.ID,
		CreatedAt:  m.CreatedAt,
		Categories: append([]string(nil), m.Categories...),
		VocabSize:  len(m.Terms),
		TrainDocs:  m.TrainDocs,
	}
}

// Run records one evaluation of a model against a labeled split.
type Run struct {
	ID         string
	ModelID    string
	Split      string
	CreatedAt  time.Time
	Accuracy   float64
	ReportJSON string // JSON-encoded metrics report
	Confusion  [][]int
}
