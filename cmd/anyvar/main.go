// Package main provides the anyvar command-line tool: a cobra command
// tree wrapping the AnyVar façade (spec.md §4.3), grounded on the
// teacher's newConfigCmd cobra+viper pairing (cmd/vibe-vep/config.go),
// generalized from one subtree to the whole CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "anyvar",
		Short: "Register, retrieve, and search GA4GH VRS sequence variation",
		Long: `anyvar registers biological sequence variants expressed under the GA4GH
Variation Representation Specification (VRS), assigns each a deterministic
content-derived identifier, and serves overlap-range search and bulk VCF
ingest.`,
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newVCFCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newSeqrepoCmd())

	return root
}
