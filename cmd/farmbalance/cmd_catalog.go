package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samdwyer/farmbalance/internal/gamedata"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the item catalog",
	}
	cmd.AddCommand(newCatalogValidateCmd())
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a catalog against the schema, references and prerequisite cycles",
		Long: `Validate a catalog file, or the built-in catalog when no file is given.

Schema violations, malformed costs or durations and prerequisite cycles
are errors. Prerequisites naming unknown items are reported as warnings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			var catalog *gamedata.Catalog
			var err error
			source := "built-in catalog"
			if len(args) == 1 {
				source = args[0]
				catalog, err = gamedata.LoadCatalogFile(args[0])
			} else {
				catalog, err = gamedata.LoadCatalog()
			}
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"source":   source,
					"items":    catalog.Count(),
					"warnings": catalog.Warnings(),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d items OK\n", source, catalog.Count())
			for _, w := range catalog.Warnings() {
				fmt.Fprintf(out, "  warning: %s\n", w)
			}
			return nil
		},
	}
}
