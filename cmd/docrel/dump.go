package main

import (
	"fmt"

	"github.com/andreyvit/docrel"
	"github.com/spf13/cobra"
)

func newDumpCmd(g *globalFlags) *cobra.Command {
	var stats, rowsOnly bool
	cmd := &cobra.Command{
		Use:   "dump [TABLE...]",
		Short: "Print tables and their raw rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := g.open()
			if err != nil {
				return err
			}
			defer store.Close()

			f := docrel.DumpTableHeaders | docrel.DumpRows
			if stats {
				f |= docrel.DumpStats
			}
			if rowsOnly {
				f = docrel.DumpRows
			}
			s, err := store.Dump(cmd.Context(), f, args...)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "include space usage per table")
	cmd.Flags().BoolVar(&rowsOnly, "rows", false, "print rows only, without table headers")
	return cmd
}
