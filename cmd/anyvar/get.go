package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anyvario/anyvar/internal/storage"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a VRS object by its digest id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			av, store, err := buildAnyVar()
			if err != nil {
				return fmt.Errorf("wire anyvar: %w", err)
			}
			defer store.Close()

			obj, ok, err := av.GetObject(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get %q: %w", args[0], err)
			}
			if !ok {
				return fmt.Errorf("get %q: %w", args[0], storage.ErrNotFound)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(obj)
		},
	}
	return cmd
}
