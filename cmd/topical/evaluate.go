package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cognicore/topical/pkg/topical"
	"github.com/cognicore/topical/pkg/topical/corpus"
)

func (a *app) evaluateCmd() *cobra.Command {
	var modelID string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a stored model on the test split",
		Long: `Evaluate predicts the test split with a stored model, prints the
classification report and confusion matrix, and records the run.
It fails when accuracy does not exceed evaluation.min_accuracy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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
			ds, err := comp.Corpus.Load(ctx, corpus.SplitTest, m.Categories)
			if err != nil {
				return fmt.Errorf("load test split: %w", err)
			}

			report, err := topical.Restore(m, a.log("pipeline")).Evaluate(ctx, ds)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Model %s on %d test documents\n\n", m.ID, report.Total)
			fmt.Fprint(out, report.String())
			fmt.Fprintln(out)
			fmt.Fprint(out, report.ConfusionString())

			run, err := topical.NewRun(m.ID, corpus.SplitTest, report)
			if err != nil {
				return err
			}
			if err := st.SaveRun(ctx, run); err != nil {
				return fmt.Errorf("save run: %w", err)
			}
			a.log("evaluate").WithFields(logrus.Fields{
				"model":    m.ID,
				"run":      run.ID,
				"accuracy": report.Accuracy,
			}).Info("Saved run")

			if floor := a.cfg.Evaluation.MinAccuracy; report.Accuracy <= floor {
				return fmt.Errorf("accuracy %.4f does not exceed min_accuracy %.4f", report.Accuracy, floor)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modelID, "model", "", "Model ID (default: latest)")
	return cmd
}
