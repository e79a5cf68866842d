package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andreyvit/docrel"
	"github.com/spf13/cobra"
)

type queryFlags struct {
	where []string
	order string
	pluck []string
}

func newQueryCmd(g *globalFlags) *cobra.Command {
	qf := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query TABLE",
		Short: "Run a relation query and print rows as JSON lines",
		Example: `  docrel query users --where street="Main Street" --order name --pluck name
  docrel query users --where id=2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, reg, err := g.open()
			if err != nil {
				return err
			}
			defer store.Close()

			rel, err := qf.apply(reg.Dataset(args[0]).Relation())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for rec, err := range rel.All(cmd.Context()) {
				if err != nil {
					return err
				}
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&qf.where, "where", "w", nil, "equality filter FIELD=VALUE (repeatable); VALUE is JSON if it parses, else a string")
	cmd.Flags().StringVarP(&qf.order, "order", "o", "", "sort ascending by FIELD")
	cmd.Flags().StringSliceVarP(&qf.pluck, "pluck", "p", nil, "only return these fields")
	return cmd
}

func (qf *queryFlags) apply(rel docrel.Relation) (docrel.Relation, error) {
	for _, w := range qf.where {
		field, value, ok := strings.Cut(w, "=")
		if !ok || field == "" {
			return rel, fmt.Errorf("invalid --where %q, wanted FIELD=VALUE", w)
		}
		rel = rel.Filter(field, parseValue(value))
	}
	if qf.order != "" {
		rel = rel.OrderBy(qf.order)
	}
	if len(qf.pluck) > 0 {
		rel = rel.Project(qf.pluck...)
	}
	return rel, nil
}

func parseValue(s string) any {
	d := json.NewDecoder(bytes.NewReader([]byte(s)))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil || d.More() {
		return s
	}
	return v
}
