package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) modelsCmd() *cobra.Command {
	var showRuns bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List stored models, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			models, err := st.ListModels(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tDOCS\tVOCAB\tCATEGORIES")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					m.ID, m.CreatedAt.Format(time.RFC3339), m.TrainDocs, m.VocabSize, strings.Join(m.Categories, ","))
				if !showRuns {
					continue
				}
				runs, err := st.RunsForModel(ctx, m.ID)
				if err != nil {
					return err
				}
				for _, r := range runs {
					fmt.Fprintf(w, "  run %s\t%s\t%s\taccuracy=%.4f\t\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.Split, r.Accuracy)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&showRuns, "runs", false, "Also list evaluation runs per model")
	return cmd
}
