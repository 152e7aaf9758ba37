package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var accession string
	var start, end int64

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find every registered Allele whose location overlaps [start, end) on accession",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accession == "" {
				return fmt.Errorf("search: --accession is required")
			}
			if end <= start {
				return fmt.Errorf("search: --end must be greater than --start")
			}

			av, store, err := buildAnyVar()
			if err != nil {
				return fmt.Errorf("wire anyvar: %w", err)
			}
			defer store.Close()

			alleles, err := av.SearchVariations(cmd.Context(), accession, start, end)
			if err != nil {
				return fmt.Errorf("search %s:%d-%d: %w", accession, start, end, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(alleles)
		},
	}

	cmd.Flags().StringVar(&accession, "accession", "", "sequence accession to search against (required)")
	cmd.Flags().Int64Var(&start, "start", 0, "inclusive start of the query interval")
	cmd.Flags().Int64Var(&end, "end", 0, "exclusive end of the query interval")

	return cmd
}
