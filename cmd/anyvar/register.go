package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <definition>",
		Short: "Register a variant definition (HGVS, SPDI, or gnomAD/VCF-style) and print its VRS id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			av, store, err := buildAnyVar()
			if err != nil {
				return fmt.Errorf("wire anyvar: %w", err)
			}
			defer store.Close()

			id, err := av.Register(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("register %q: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{"definition": args[0], "id": id})
		},
	}
	return cmd
}
