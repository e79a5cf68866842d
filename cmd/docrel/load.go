package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andreyvit/docrel"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newLoadCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load TABLE FILE",
		Short: "Insert records from a JSON array or YAML list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(args[1])
			if err != nil {
				return err
			}

			store, _, err := g.open()
			if err != nil {
				return err
			}
			defer store.Close()

			err = store.Insert(cmd.Context(), args[0], records...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d records into %s\n", len(records), args[0])
			return nil
		},
	}
}

func readRecords(path string) ([]docrel.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []docrel.Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &records)
	default:
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		err = d.Decode(&records)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
