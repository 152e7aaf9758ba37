package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anyvario/anyvar/internal/config"
	"github.com/anyvario/anyvar/internal/vcfingest"
)

func newVCFCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "vcf <input.vcf[.gz]> <output.vcf>",
		Short: "Annotate every variant in a VCF file with its VRS allele id (spec.md §4.8's ingest pipeline, run offline)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger()
			defer logger.Sync() //nolint:errcheck

			av, store, err := buildAnyVar()
			if err != nil {
				return fmt.Errorf("wire anyvar: %w", err)
			}
			defer store.Close()

			if workers <= 0 {
				workers = config.GetInt(config.WorkerConcurrencyKey)
			}

			count, err := vcfingest.RunFile(cmd.Context(), av, args[0], args[1], workers, logger)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "processed %d alleles, wrote %s\n", count, args[1])
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "translate/register concurrency (default from async.worker_concurrency)")

	return cmd
}
