package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var definitionsCmd = &cobra.Command{
	Use:   "definitions [definition-id]",
	Short: "List entity definitions, or show one with its fields",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)

		if len(args) == 1 {
			def, err := client.Definition(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load definition: %w", err)
			}
			if jsonOutput {
				printJSON(def)
			} else {
				printDefinition(def)
			}
			return nil
		}

		defs, err := client.Definitions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list definitions: %w", err)
		}
		if jsonOutput {
			printJSON(defs)
		} else {
			printDefinitionList(defs)
		}
		return nil
	},
}
