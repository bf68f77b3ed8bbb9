package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Fit a model on the train split and store it",
		Args:  cobra.NoArgs,
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

			m, err := a.train(ctx, comp, st)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}
}
