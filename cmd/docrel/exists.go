package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExistsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exists TABLE",
		Short: "Print whether a table exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, reg, err := g.open()
			if err != nil {
				return err
			}
			defer store.Close()

			found, err := reg.DatasetExists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), found)
			return nil
		},
	}
}
