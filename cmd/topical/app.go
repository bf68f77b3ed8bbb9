package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cognicore/topical/internal/logging"
	"github.com/cognicore/topical/pkg/topical"
	"github.com/cognicore/topical/pkg/topical/config"
	"github.com/cognicore/topical/pkg/topical/corpus"
	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/store"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "topical",
		Short:         "Newsgroup topic classification with TF-IDF and Naive Bayes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level from the config")

	root.AddCommand(
		a.trainCmd(),
		a.evaluateCmd(),
		a.predictCmd(),
		a.normalizeCmd(),
		a.stopwordsCmd(),
		a.modelsCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = *loaded
	}

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := logging.NewWithOutput(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = &cfg
	a.logger = logger
	return nil
}

func (a *app) log(component string) *logrus.Entry {
	return a.logger.WithField("component", component)
}

func (a *app) loader() *config.Loader {
	return &config.Loader{Config: a.cfg, Logger: a.log("corpus")}
}

func (a *app) components() (*config.Components, error) {
	return a.loader().Load()
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	return a.loader().OpenStore(ctx)
}

func (a *app) pipeline(comp *config.Components) *topical.Pipeline {
	vecOpts := a.cfg.Vectorizer
	return topical.New(topical.Options{
		Normalizer:   comp.Normalizer,
		Vectorizer:   &vecOpts,
		Alpha:        a.cfg.Classifier.Alpha,
		UniformPrior: !a.cfg.Classifier.FitPrior,
		Logger:       a.log("pipeline"),
	})
}

// train fits a model on the train split and persists it.
func (a *app) train(ctx context.Context, comp *config.Components, st store.Store) (*topical.Model, error) {
	ds, err := comp.Corpus.Load(ctx, corpus.SplitTrain, a.cfg.Corpus.Categories)
	if err != nil {
		return nil, fmt.Errorf("load train split: %w", err)
	}
	a.log("train").WithFields(logrus.Fields{
		"docs":       ds.Len(),
		"categories": len(ds.Categories),
	}).Info("Loaded train split")

	m, err := a.pipeline(comp).FitDataset(ctx, ds)
	if err != nil {
		return nil, err
	}
	rec, err := m.Record()
	if err != nil {
		return nil, err
	}
	if err := st.SaveModel(ctx, rec); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	a.log("train").WithFields(logrus.Fields{
		"model": m.ID,
		"vocab": m.VocabSize(),
	}).Info("Saved model")
	return m, nil
}

// model loads the model with the given ID, or the latest one. With no ID
// and an empty store it trains a fresh model first.
func (a *app) model(ctx context.Context, comp *config.Components, st store.Store, id string) (*topical.Model, error) {
	var (
		rec store.Model
		err error
	)
	if id != "" {
		rec, err = st.GetModel(ctx, id)
	} else {
		rec, err = st.LatestModel(ctx)
		if errors.Is(err, internalerr.ErrNotFound) {
			a.log("cli").Info("No stored model, training one")
			return a.train(ctx, comp, st)
		}
	}
	if err != nil {
		return nil, err
	}
	return topical.ModelFromRecord(rec)
}
