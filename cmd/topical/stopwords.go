package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cognicore/topical/pkg/topical"
	"github.com/cognicore/topical/pkg/topical/config"
	"github.com/cognicore/topical/pkg/topical/corpus"
)

type stopwordCandidate struct {
	Token      string  `json:"token"`
	Score      float64 `json:"score"`
	DFPercent  float64 `json:"df_percent"`
	CatEntropy float64 `json:"cat_entropy"`
}

func (a *app) stopwordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stopwords",
		Short: "Stopword list tools",
	}

	var writePath string
	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest corpus-specific stopwords from the train split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := a.components()
			if err != nil {
				return err
			}
			ds, err := comp.Corpus.Load(cmd.Context(), corpus.SplitTrain, a.cfg.Corpus.Categories)
			if err != nil {
				return fmt.Errorf("load train split: %w", err)
			}

			candidates := topical.SuggestStopwords(comp.Normalizer, ds, comp.Stoplist, comp.Thresholds)
			out := make([]stopwordCandidate, len(candidates))
			tokens := make([]string, len(candidates))
			for i, c := range candidates {
				out[i] = stopwordCandidate{
					Token:      c.Token,
					Score:      c.Score,
					DFPercent:  c.Reason.DFPercent,
					CatEntropy: c.Reason.CatEntropy,
				}
				tokens[i] = c.Token
			}

			if writePath != "" {
				if err := config.WriteStoplist(writePath, tokens); err != nil {
					return fmt.Errorf("write stoplist: %w", err)
				}
				a.log("stopwords").WithFields(logrus.Fields{
					"path":  writePath,
					"terms": len(tokens),
				}).Info("Wrote stoplist")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	suggest.Flags().StringVar(&writePath, "write", "", "Also write the suggested terms as a stoplist YAML file")

	cmd.AddCommand(suggest)
	return cmd
}
