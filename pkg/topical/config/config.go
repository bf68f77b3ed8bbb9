package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/topical/pkg/topical/bayes"
	"github.com/cognicore/topical/pkg/topical/corpus"
	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/stoplist"
	"github.com/cognicore/topical/pkg/topical/vectorize"
)

// DefaultCategories are the four newsgroups the classifier is trained on.
var DefaultCategories = []string{
	"alt.atheism",
	"soc.religion.christian",
	"comp.graphics",
	"sci.med",
}

// DefaultSamples are the ad hoc sentences classified by `topical predict`.
var DefaultSamples = []string{
	"Medical science has made great strides in the treatment of cancer.",
	"Christianity is based on the teachings of Jesus Christ.",
	"The CPU performance of the new graphics card is remarkable.",
	"There is no evidence for the existence of any god.",
}

// Config is the full pipeline configuration.
type Config struct {
	Corpus     Corpus            `yaml:"corpus" toml:"corpus"`
	Stopwords  Stopwords         `yaml:"stopwords" toml:"stopwords"`
	Vectorizer vectorize.Options `yaml:"vectorizer" toml:"vectorizer"`
	Classifier Classifier        `yaml:"classifier" toml:"classifier"`
	Store      Store             `yaml:"store" toml:"store"`
	Evaluation Evaluation        `yaml:"evaluation" toml:"evaluation"`
	Samples    []string          `yaml:"samples" toml:"samples"`
	Log        Log               `yaml:"log" toml:"log"`
}

// Corpus selects the document source.
type Corpus struct {
	Format     string   `yaml:"format" toml:"format"` // "dir" or "jsonl"
	Root       string   `yaml:"root" toml:"root"`
	Prefix     string   `yaml:"prefix" toml:"prefix"`
	Path       string   `yaml:"path" toml:"path"`
	Categories []string `yaml:"categories" toml:"categories"`
	Remove     []string `yaml:"remove" toml:"remove"`
	Shuffle    bool     `yaml:"shuffle" toml:"shuffle"`
	Seed       int64    `yaml:"seed" toml:"seed"`
}

// Stopwords controls the normalizer's stopword set.
type Stopwords struct {
	Builtin bool     `yaml:"builtin" toml:"builtin"`
	Path    string   `yaml:"path" toml:"path"`
	Extra   []string `yaml:"extra" toml:"extra"`
	Keep    []string `yaml:"keep" toml:"keep"`

	SuggestDFPercent  float64 `yaml:"suggest_df_percent" toml:"suggest_df_percent"`
	SuggestCatEntropy float64 `yaml:"suggest_cat_entropy" toml:"suggest_cat_entropy"`
}

// Classifier configures multinomial Naive Bayes.
type Classifier struct {
	Alpha    float64 `yaml:"alpha" toml:"alpha"`
	FitPrior bool    `yaml:"fit_prior" toml:"fit_prior"`
}

// Store selects model persistence.
type Store struct {
	Driver string `yaml:"driver" toml:"driver"` // "sqlite" or "memory"
	Path   string `yaml:"path" toml:"path"`
}

// Evaluation holds the regression gate for `topical evaluate`.
type Evaluation struct {
	MinAccuracy float64 `yaml:"min_accuracy" toml:"min_accuracy"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Corpus formats and store drivers.
const (
	FormatDir   = "dir"
	FormatJSONL = "jsonl"

	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Default returns the configuration used when no file overrides a field.
func Default() Config {
	thresholds := stoplist.DefaultThresholds()
	return Config{
		Corpus: Corpus{
			Format:     FormatDir,
			Root:       ".",
			Prefix:     corpus.DefaultPrefix,
			Categories: append([]string(nil), DefaultCategories...),
		},
		Stopwords: Stopwords{
			Builtin:           true,
			SuggestDFPercent:  thresholds.DFPercent,
			SuggestCatEntropy: thresholds.CatEntropy,
		},
		Vectorizer: vectorize.DefaultOptions(),
		Classifier: Classifier{Alpha: bayes.DefaultAlpha, FitPrior: true},
		Store:      Store{Driver: DriverSQLite, Path: "topical.db"},
		Evaluation: Evaluation{MinAccuracy: 0.85},
		Samples:    append([]string(nil), DefaultSamples...),
		Log:        Log{Level: "info", Format: "text"},
	}
}

// Load reads a YAML or TOML file, chosen by extension, on top of Default.
// Relative paths inside the file resolve against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config extension %q", internalerr.ErrInvalidConfig, ext)
	}

	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Corpus.Root = resolve(c.Corpus.Root)
	c.Corpus.Path = resolve(c.Corpus.Path)
	c.Stopwords.Path = resolve(c.Stopwords.Path)
	if c.Store.Driver == DriverSQLite {
		c.Store.Path = resolve(c.Store.Path)
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch c.Corpus.Format {
	case FormatDir:
		if c.Corpus.Root == "" {
			return fmt.Errorf("%w: corpus.root is required for the dir format", internalerr.ErrInvalidConfig)
		}
	case FormatJSONL:
		if c.Corpus.Path == "" {
			return fmt.Errorf("%w: corpus.path is required for the jsonl format", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown corpus.format %q", internalerr.ErrInvalidConfig, c.Corpus.Format)
	}
	for _, part := range c.Corpus.Remove {
		switch part {
		case corpus.RemoveHeaders, corpus.RemoveFooters, corpus.RemoveQuotes:
		default:
			return fmt.Errorf("%w: unknown corpus.remove entry %q", internalerr.ErrInvalidConfig, part)
		}
	}

	if err := c.Vectorizer.Validate(); err != nil {
		return err
	}
	if err := bayes.New(c.Classifier.Alpha, c.Classifier.FitPrior).Validate(); err != nil {
		return err
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for sqlite", internalerr.ErrInvalidConfig)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store.driver %q", internalerr.ErrInvalidConfig, c.Store.Driver)
	}

	if c.Evaluation.MinAccuracy < 0 || c.Evaluation.MinAccuracy > 1 {
		return fmt.Errorf("%w: evaluation.min_accuracy must be in [0,1], got %v", internalerr.ErrInvalidConfig, c.Evaluation.MinAccuracy)
	}
	if c.Stopwords.SuggestDFPercent < 0 || c.Stopwords.SuggestDFPercent > 100 {
		return fmt.Errorf("%w: stopwords.suggest_df_percent must be in [0,100]", internalerr.ErrInvalidConfig)
	}
	if c.Stopwords.SuggestCatEntropy < 0 || c.Stopwords.SuggestCatEntropy > 1 {
		return fmt.Errorf("%w: stopwords.suggest_cat_entropy must be in [0,1]", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// WriteStoplist writes terms in the format LoadStoplist reads.
func WriteStoplist(path string, terms []string) error {
	data, err := yaml.Marshal(Stoplist{Terms: terms})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
