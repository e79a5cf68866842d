package main

import (
	"github.com/spf13/cobra"
)

func newDropCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "drop TABLE",
		Short: "Remove a table and all of its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := g.open()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DropTable(cmd.Context(), args[0])
		},
	}
}
