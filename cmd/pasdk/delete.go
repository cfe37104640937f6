package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <definition-id> <instance-id>",
	Short: "Delete an instance and its relation edges",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.DeleteInstance(cmdContext(cmd), args[0], args[1]); err != nil {
			return fmt.Errorf("failed to delete instance: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[1])
		return nil
	},
}
