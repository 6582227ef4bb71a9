package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rendis/vetassist/internal/format"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	var (
		jq      string
		fmtFlag string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List animal types and symptoms",
		Example: "  vetassist catalog\n" +
			"  vetassist catalog --jq '.symptoms[] | select(.category == \"respiratory\") | .id'",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFmt, err := parseOutputFormat(fmtFlag)
			if err != nil {
				return err
			}
			a, err := newApp(opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jq != "" {
				v, err := a.catalog.Query(cmd.Context(), jq)
				if err != nil {
					return err
				}
				return writeJSON(out, v)
			}
			if outFmt == outputJSON {
				return writeJSON(out, map[string]any{
					"animals":  a.catalog.Animals(),
					"symptoms": a.catalog.Symptoms(),
				})
			}
			fmt.Fprintln(out, format.Catalog(outFmt.mode(), a.catalog))
			return nil
		},
	}
	cmd.Flags().StringVar(&jq, "jq", "", "jq expression over {animals, symptoms}; prints JSON")
	cmd.Flags().StringVarP(&fmtFlag, "format", "f", string(outputTable), "output format: table, markdown, json")
	return cmd
}
