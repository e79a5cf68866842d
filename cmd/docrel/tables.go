package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTablesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := g.open()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.TableStats(cmd.Context())
			if err != nil {
				return err
			}
			for _, ts := range stats {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", ts.Name, ts.Rows)
			}
			return nil
		},
	}
}
