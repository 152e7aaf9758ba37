package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newSeqrepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seqrepo",
		Short: "Manage the DataProxy's sequence/accession cache",
	}
	cmd.AddCommand(newSeqrepoPrimeCmd())
	return cmd
}

// newSeqrepoPrimeCmd is the download-progress idiom of the teacher's
// `vibe-vep download` command (cmd/vibe-vep/download.go), adapted: there
// is nothing to fetch to disk here, so "downloading" becomes resolving
// each accession once through the configured DataProxy and reporting the
// ones that fail. The RemoteProxy LRU cache this warms lives only in this
// command's process; it is not persisted for a later `anyvar vcf` run.
func newSeqrepoPrimeCmd() *cobra.Command {
	var accessionsFile string

	cmd := &cobra.Command{
		Use:   "prime",
		Short: "Warm the DataProxy cache by resolving a list of accessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessionsFile == "" {
				return fmt.Errorf("seqrepo prime: --accessions-file is required")
			}

			f, err := os.Open(accessionsFile)
			if err != nil {
				return fmt.Errorf("seqrepo prime: open %s: %w", accessionsFile, err)
			}
			defer f.Close()

			proxy, err := buildDataProxy()
			if err != nil {
				return fmt.Errorf("wire dataproxy: %w", err)
			}

			ctx := cmd.Context()
			start := time.Now()
			total, failed := 0, 0

			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				alias := scanner.Text()
				if alias == "" {
					continue
				}
				total++
				if _, err := proxy.TranslateSequenceIdentifier(ctx, alias); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "  warm %s: %v\n", alias, err)
					continue
				}
				if total%100 == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "\r  warmed %d accessions...", total)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("seqrepo prime: read %s: %w", accessionsFile, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\rwarmed %d/%d accessions in %s (%d failed)\n",
				total-failed, total, time.Since(start).Round(time.Millisecond), failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&accessionsFile, "accessions-file", "", "path to a newline-delimited list of accessions/aliases to resolve (required)")

	return cmd
}
