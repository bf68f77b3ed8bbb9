package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Print the normalized form of each text, or of each stdin line",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := a.components()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				for _, text := range args {
					fmt.Fprintln(out, comp.Normalizer.Normalize(text))
				}
				return nil
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			for scanner.Scan() {
				fmt.Fprintln(out, comp.Normalizer.Normalize(scanner.Text()))
			}
			return scanner.Err()
		},
	}
}
