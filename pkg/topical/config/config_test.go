package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/vectorize"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadStoplist(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stoplist.yaml", `terms:
  - writes
  - article
  - subject
`)

	sl, err := LoadStoplist(path)
	if err != nil {
		t.Fatalf("Failed to load stoplist: %v", err)
	}
	if len(sl.Terms) != 3 {
		t.Errorf("Expected 3 terms, got %d", len(sl.Terms))
	}
}

func TestWriteStoplistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := WriteStoplist(path, []string{"lines", "organization"}); err != nil {
		t.Fatalf("WriteStoplist: %v", err)
	}
	sl, err := LoadStoplist(path)
	if err != nil {
		t.Fatalf("LoadStoplist: %v", err)
	}
	if len(sl.Terms) != 2 || sl.Terms[0] != "lines" {
		t.Errorf("Round trip lost terms: %v", sl.Terms)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "topical.yaml", `corpus:
  root: data
  categories: [sci.med, comp.graphics]
  remove: [headers, quotes]
vectorizer:
  sublinear_tf: true
  min_df: 2
classifier:
  alpha: 0.5
store:
  path: models.db
evaluation:
  min_accuracy: 0.7
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Corpus.Root != filepath.Join(dir, "data") {
		t.Errorf("Corpus root should resolve against config dir, got %q", cfg.Corpus.Root)
	}
	if len(cfg.Corpus.Categories) != 2 {
		t.Errorf("Categories = %v", cfg.Corpus.Categories)
	}
	if !cfg.Vectorizer.SublinearTF || cfg.Vectorizer.MinDF != 2 {
		t.Errorf("Vectorizer = %+v", cfg.Vectorizer)
	}
	// unspecified fields keep their defaults
	if !cfg.Vectorizer.SmoothIDF || cfg.Vectorizer.Norm != vectorize.NormL2 {
		t.Errorf("Vectorizer defaults lost: %+v", cfg.Vectorizer)
	}
	if cfg.Classifier.Alpha != 0.5 || !cfg.Classifier.FitPrior {
		t.Errorf("Classifier = %+v", cfg.Classifier)
	}
	if cfg.Store.Path != filepath.Join(dir, "models.db") {
		t.Errorf("Store path = %q", cfg.Store.Path)
	}
	if cfg.Evaluation.MinAccuracy != 0.7 {
		t.Errorf("MinAccuracy = %v", cfg.Evaluation.MinAccuracy)
	}
	if !cfg.Stopwords.Builtin {
		t.Error("Builtin stopwords should default to true")
	}
	if len(cfg.Samples) != len(DefaultSamples) {
		t.Errorf("Samples = %v", cfg.Samples)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "topical.toml", `samples = ["a graphics card"]

[corpus]
format = "jsonl"
path = "/abs/corpus.jsonl"

[stopwords]
builtin = false
extra = ["writes"]

[store]
driver = "memory"

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Corpus.Format != FormatJSONL || cfg.Corpus.Path != "/abs/corpus.jsonl" {
		t.Errorf("Corpus = %+v", cfg.Corpus)
	}
	if cfg.Stopwords.Builtin || len(cfg.Stopwords.Extra) != 1 {
		t.Errorf("Stopwords = %+v", cfg.Stopwords)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if len(cfg.Samples) != 1 {
		t.Errorf("Samples = %v", cfg.Samples)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Should error on missing file")
	}

	path := writeFile(t, dir, "topical.ini", "x=1")
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Unknown extension = %v, want ErrInvalidConfig", err)
	}

	path = writeFile(t, dir, "broken.yaml", "corpus: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Should error on malformed YAML")
	}

	path = writeFile(t, dir, "alpha.yaml", "classifier:\n  alpha: 0\n")
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Zero alpha = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown corpus format", func(c *Config) { c.Corpus.Format = "csv" }},
		{"jsonl without path", func(c *Config) { c.Corpus.Format = FormatJSONL }},
		{"dir without root", func(c *Config) { c.Corpus.Root = "" }},
		{"unknown remove", func(c *Config) { c.Corpus.Remove = []string{"signatures"} }},
		{"bad norm", func(c *Config) { c.Vectorizer.Norm = "l1" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }},
		{"accuracy above one", func(c *Config) { c.Evaluation.MinAccuracy = 1.5 }},
		{"entropy above one", func(c *Config) { c.Stopwords.SuggestCatEntropy = 2 }},
	}

	def := Default()
	if err := def.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
