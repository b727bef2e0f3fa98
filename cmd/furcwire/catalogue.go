package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/furcwire-project/furcwire/internal/cli"
	"github.com/furcwire-project/furcwire/internal/protocol"
)

func catalogueCmd() *cobra.Command {
	var (
		status string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "catalogue",
		Aliases: []string{"catalog"},
		Short:   "List every server message the client knows",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []protocol.Entry
			for _, e := range protocol.Catalogue() {
				if status == "" || e.Status.String() == status {
					entries = append(entries, e)
				}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			cli.RenderCatalogue(os.Stdout, entries)
			fmt.Printf("%d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show decoded, opaque or unsupported entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}
