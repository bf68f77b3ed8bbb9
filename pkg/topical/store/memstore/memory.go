package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	models map[string]store.Model
	runs   map[string][]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		models: make(map[string]store.Model),
		runs:   make(map[string][]store.Run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveModel inserts or replaces a model, keyed by ID.
func (s *Store) SaveModel(ctx context.Context, m store.Model) error {
	if m.ID == "" {
		return fmt.Errorf("%w: model without id", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.ID] = copyModel(m)
	return nil
}

// GetModel returns a model by ID.
func (s *Store) GetModel(ctx context.Context, id string) (store.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.models[id]; ok {
		return copyModel(m), nil
	}
	return store.Model{}, fmt.Errorf("model %s: %w", id, internalerr.ErrNotFound)
}

// LatestModel returns the most recently created model.
func (s *Store) LatestModel(ctx context.Context) (store.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := s.orderedLocked()
	if len(ordered) == 0 {
		return store.Model{}, fmt.Errorf("latest model: %w", internalerr.ErrNotFound)
	}
	return copyModel(ordered[0]), nil
}

// ListModels returns model summaries, newest first.
func (s *Store) ListModels(ctx context.Context) ([]store.ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := s.orderedLocked()
	infos := make([]store.ModelInfo, 0, len(ordered))
	for _, m := range ordered {
		infos = append(infos, m.Info())
	}
	return infos, nil
}

// SaveRun appends an evaluation run; the model must exist.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[r.ModelID]; !ok {
		return fmt.Errorf("run %s: model %s: %w", r.ID, r.ModelID, internalerr.ErrNotFound)
	}
	s.runs[r.ModelID] = append(s.runs[r.ModelID], copyRun(r))
	return nil
}

// RunsForModel returns the runs of a model, oldest first.
func (s *Store) RunsForModel(ctx context.Context, modelID string) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]store.Run, 0, len(s.runs[modelID]))
	for _, r := range s.runs[modelID] {
		runs = append(runs, copyRun(r))
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
	return runs, nil
}

func (s *Store) orderedLocked() []store.Model {
	out := make([]store.Model, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func copyModel(m store.Model) store.Model {
	out := m
	out.Categories = append([]string(nil), m.Categories...)
	out.Stopwords = append([]string(nil), m.Stopwords...)
	out.Terms = append([]string(nil), m.Terms...)
	out.IDF = append([]float64(nil), m.IDF...)
	out.ClassCount = append([]float64(nil), m.ClassCount...)
	out.ClassLogPrior = append([]float64(nil), m.ClassLogPrior...)
	out.FeatureLogProb = make([][]float64, len(m.FeatureLogProb))
	for i, row := range m.FeatureLogProb {
		out.FeatureLogProb[i] = append([]float64(nil), row...)
	}
	return out
}

func copyRun(r store.Run) store.Run {
	out := r
	out.Confusion = make([][]int, len(r.Confusion))
	for i, row := range r.Confusion {
		out.Confusion[i] = append([]int(nil), row...)
	}
	return out
}
