package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/store"
)

func sampleModel(id string, created time.Time) store.Model {
	return store.Model{
		ID:             id,
		CreatedAt:      created,
		Categories:     []string{"sci.med", "comp.graphics"},
		Stopwords:      []string{"the"},
		Terms:          []string{"cancer", "image"},
		IDF:            []float64{1.2, 1.3},
		Alpha:          1,
		FitPrior:       true,
		ClassCount:     []float64{3, 2},
		ClassLogPrior:  []float64{-0.5, -0.9},
		FeatureLogProb: [][]float64{{-0.1, -2}, {-2, -0.1}},
		TrainDocs:      5,
	}
}

func TestSaveAndGetModel(t *testing.T) {
	ctx := context.Background()
	s := New()

	m := sampleModel("01A", time.Now())
	if err := s.SaveModel(ctx, m); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	// mutating the caller's copy must not leak into the store
	m.Terms[0] = "mutated"
	m.FeatureLogProb[0][0] = 99

	got, err := s.GetModel(ctx, "01A")
	if err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	if got.Terms[0] != "cancer" || got.FeatureLogProb[0][0] != -0.1 {
		t.Errorf("stored model aliased caller slices: %+v", got)
	}

	if _, err := s.GetModel(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetModel(missing) = %v, want ErrNotFound", err)
	}
	if err := s.SaveModel(ctx, store.Model{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("SaveModel without id = %v, want ErrInvalidInput", err)
	}
}

func TestLatestAndListModels(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.LatestModel(ctx); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("LatestModel on empty store = %v, want ErrNotFound", err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"01A", "01C", "01B"} {
		if err := s.SaveModel(ctx, sampleModel(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveModel(%s): %v", id, err)
		}
	}

	latest, err := s.LatestModel(ctx)
	if err != nil {
		t.Fatalf("LatestModel: %v", err)
	}
	if latest.ID != "01B" {
		t.Errorf("LatestModel = %s, want 01B", latest.ID)
	}

	infos, err := s.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(infos) != 3 || infos[0].ID != "01B" || infos[2].ID != "01A" {
		t.Errorf("ListModels order = %+v", infos)
	}
	if infos[0].VocabSize != 2 || infos[0].TrainDocs != 5 {
		t.Errorf("ModelInfo = %+v", infos[0])
	}
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := New()

	run := store.Run{ID: "R1", ModelID: "01A", Split: "test", Accuracy: 0.9}
	if err := s.SaveRun(ctx, run); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("SaveRun for unknown model = %v, want ErrNotFound", err)
	}

	if err := s.SaveModel(ctx, sampleModel("01A", time.Now())); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	second := store.Run{ID: "R2", ModelID: "01A", Split: "test", CreatedAt: now.Add(time.Minute), Confusion: [][]int{{1, 0}, {0, 1}}}
	first := store.Run{ID: "R1", ModelID: "01A", Split: "test", CreatedAt: now, Accuracy: 0.9}
	for _, r := range []store.Run{second, first} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun(%s): %v", r.ID, err)
		}
	}

	runs, err := s.RunsForModel(ctx, "01A")
	if err != nil {
		t.Fatalf("RunsForModel: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "R1" || runs[1].ID != "R2" {
		t.Fatalf("RunsForModel order = %+v", runs)
	}
	if runs[1].Confusion[1][1] != 1 {
		t.Errorf("Confusion not preserved: %v", runs[1].Confusion)
	}

	none, err := s.RunsForModel(ctx, "other")
	if err != nil || len(none) != 0 {
		t.Errorf("RunsForModel(other) = %v, %v", none, err)
	}
}
