package config

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/topical/pkg/topical/corpus"
	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/normalize"
	"github.com/cognicore/topical/pkg/topical/stoplist"
	"github.com/cognicore/topical/pkg/topical/store"
	"github.com/cognicore/topical/pkg/topical/store/memstore"
	"github.com/cognicore/topical/pkg/topical/store/sqlite"
)

// Loader constructs pipeline components from a Config
type Loader struct {
	Config *Config
	Logger *logrus.Entry
}

// Components holds all configured components
type Components struct {
	Stoplist   *stoplist.Manager
	Normalizer *normalize.Normalizer
	Corpus     corpus.Loader
	Thresholds stoplist.Thresholds
}

// Load builds the stoplist, normalizer and corpus loader
func (l *Loader) Load() (*Components, error) {
	cfg := l.config()
	comp := &Components{
		Thresholds: stoplist.Thresholds{
			DFPercent:  cfg.Stopwords.SuggestDFPercent,
			CatEntropy: cfg.Stopwords.SuggestCatEntropy,
		},
	}

	var terms []string
	if cfg.Stopwords.Builtin {
		terms = append(terms, stoplist.English()...)
	}
	if cfg.Stopwords.Path != "" {
		sl, err := LoadStoplist(cfg.Stopwords.Path)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		terms = append(terms, sl.Terms...)
	}
	terms = append(terms, cfg.Stopwords.Extra...)

	comp.Stoplist = stoplist.NewManager(terms)
	for _, keep := range cfg.Stopwords.Keep {
		comp.Stoplist.Remove(keep)
	}
	comp.Normalizer = normalize.New(comp.Stoplist.All())

	loader, err := l.corpusLoader()
	if err != nil {
		return nil, err
	}
	comp.Corpus = loader
	return comp, nil
}

func (l *Loader) corpusLoader() (corpus.Loader, error) {
	cfg := l.config()
	switch cfg.Corpus.Format {
	case FormatJSONL:
		jl := corpus.NewJSONLLoader(cfg.Corpus.Path, l.logger())
		jl.Remove = cfg.Corpus.Remove
		return jl, nil
	case FormatDir, "":
		dl := corpus.NewDirLoader(cfg.Corpus.Root, l.logger())
		if cfg.Corpus.Prefix != "" {
			dl.Prefix = cfg.Corpus.Prefix
		}
		dl.Remove = cfg.Corpus.Remove
		dl.Shuffle = cfg.Corpus.Shuffle
		dl.Seed = cfg.Corpus.Seed
		return dl, nil
	}
	return nil, fmt.Errorf("corpus format %q: %w", cfg.Corpus.Format, internalerr.ErrInvalidConfig)
}

// OpenStore opens the configured model store
func (l *Loader) OpenStore(ctx context.Context) (store.Store, error) {
	cfg := l.config()
	switch cfg.Store.Driver {
	case DriverMemory:
		return memstore.New(), nil
	case DriverSQLite, "":
		st, err := sqlite.OpenSQLite(ctx, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
		}
		return st, nil
	}
	return nil, fmt.Errorf("store driver %q: %w", cfg.Store.Driver, internalerr.ErrInvalidConfig)
}

func (l *Loader) config() *Config {
	if l.Config == nil {
		cfg := Default()
		l.Config = &cfg
	}
	return l.Config
}

func (l *Loader) logger() *logrus.Entry {
	if l.Logger == nil {
		l.Logger = logrus.WithField("component", "config")
	}
	return l.Logger
}
