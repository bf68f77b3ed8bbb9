package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/topical/pkg/topical"
)

type prediction struct {
	Text          string             `json:"text"`
	Category      string             `json:"category"`
	Probabilities map[string]float64 `json:"probabilities"`
}

func (a *app) predictCmd() *cobra.Command {
	var (
		modelID string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "predict [text...]",
		Short: "Predict the category of each text (default: configured samples)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			texts := args
			if len(texts) == 0 {
				texts = a.cfg.Samples
			}
			if len(texts) == 0 {
				return fmt.Errorf("no texts given and no samples configured")
			}

			comp, err := a.components()
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			m, err := a.model(ctx, comp, st, modelID)
			if err != nil {
				return err
			}
			p := topical.Restore(m, a.log("pipeline"))
			proba, err := p.PredictProba(ctx, texts)
			if err != nil {
				return err
			}
			labels, err := p.Predict(ctx, texts)
			if err != nil {
				return err
			}

			preds := make([]prediction, len(texts))
			for i, text := range texts {
				probs := make(map[string]float64, len(m.Categories))
				for c, v := range proba[i] {
					probs[m.Categories[c]] = v
				}
				preds[i] = prediction{Text: text, Category: m.Categories[labels[i]], Probabilities: probs}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(preds)
			}
			for i, pr := range preds {
				fmt.Fprintf(out, "%s\t%.3f\t%s\n", pr.Category, proba[i][labels[i]], pr.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modelID, "model", "", "Model ID (default: latest)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print predictions with all class probabilities as JSON")
	return cmd
}
