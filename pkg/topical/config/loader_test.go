package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cognicore/topical/pkg/topical/corpus"
	"github.com/cognicore/topical/pkg/topical/store/memstore"
)

func TestLoaderDefaults(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Default loader should succeed: %v", err)
	}

	if comp.Normalizer == nil || comp.Stoplist == nil {
		t.Fatal("Should have normalizer and stoplist")
	}
	if !comp.Stoplist.IsStop("the") {
		t.Error("Builtin English stopwords should be loaded by default")
	}
	if got := comp.Normalizer.Normalize("The cancer of the patients"); got != "cancer patients" {
		t.Errorf("Normalize = %q", got)
	}
	if _, ok := comp.Corpus.(*corpus.DirLoader); !ok {
		t.Errorf("Default corpus loader should be a DirLoader, got %T", comp.Corpus)
	}
	if comp.Thresholds.DFPercent != 50 {
		t.Errorf("Thresholds = %+v", comp.Thresholds)
	}
}

func TestLoaderStopwordSources(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "stoplist.yaml", "terms:\n  - writes\n  - article\n")

	cfg := Default()
	cfg.Stopwords.Path = path
	cfg.Stopwords.Extra = []string{"Subject"}
	cfg.Stopwords.Keep = []string{"not"}

	comp, err := (&Loader{Config: &cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, w := range []string{"the", "writes", "article", "subject"} {
		if !comp.Stoplist.IsStop(w) {
			t.Errorf("%q should be a stopword", w)
		}
	}
	if comp.Stoplist.IsStop("not") {
		t.Error("kept word should not be a stopword")
	}
	if got := comp.Normalizer.Normalize("not the article"); got != "not" {
		t.Errorf("Normalize = %q, want %q", got, "not")
	}
}

func TestLoaderNoBuiltin(t *testing.T) {
	cfg := Default()
	cfg.Stopwords.Builtin = false

	comp, err := (&Loader{Config: &cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(comp.Stoplist.All()) != 0 {
		t.Errorf("Expected empty stoplist, got %v", comp.Stoplist.All())
	}
}

func TestLoaderNonExistentStoplist(t *testing.T) {
	cfg := Default()
	cfg.Stopwords.Path = "/nonexistent/stoplist.yaml"

	if _, err := (&Loader{Config: &cfg}).Load(); err == nil {
		t.Error("Should error on nonexistent stoplist")
	}
}

func TestLoaderCorpusFormats(t *testing.T) {
	cfg := Default()
	cfg.Corpus.Format = FormatJSONL
	cfg.Corpus.Path = "corpus.jsonl"
	cfg.Corpus.Remove = []string{corpus.RemoveHeaders}

	comp, err := (&Loader{Config: &cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	jl, ok := comp.Corpus.(*corpus.JSONLLoader)
	if !ok {
		t.Fatalf("Expected JSONLLoader, got %T", comp.Corpus)
	}
	if jl.Path != "corpus.jsonl" || len(jl.Remove) != 1 {
		t.Errorf("JSONLLoader = %+v", jl)
	}

	cfg = Default()
	cfg.Corpus.Prefix = "news"
	cfg.Corpus.Shuffle = true
	cfg.Corpus.Seed = 7
	comp, err = (&Loader{Config: &cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dl := comp.Corpus.(*corpus.DirLoader)
	if dl.Prefix != "news" || !dl.Shuffle || dl.Seed != 7 {
		t.Errorf("DirLoader = %+v", dl)
	}
}

func TestLoaderOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	cfg.Store.Driver = DriverMemory
	st, err := (&Loader{Config: &cfg}).OpenStore(ctx)
	if err != nil {
		t.Fatalf("OpenStore(memory): %v", err)
	}
	if _, ok := st.(*memstore.Store); !ok {
		t.Errorf("Expected memstore, got %T", st)
	}

	cfg = Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "models.db")
	st, err = (&Loader{Config: &cfg}).OpenStore(ctx)
	if err != nil {
		t.Fatalf("OpenStore(sqlite): %v", err)
	}
	defer st.Close()
	if _, err := st.ListModels(ctx); err != nil {
		t.Errorf("ListModels on fresh sqlite store: %v", err)
	}
}
