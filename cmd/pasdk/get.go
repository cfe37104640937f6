package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IgorChugurov/public-api-sdk/internal/entity"
)

var getCmd = &cobra.Command{
	Use:   "get <definition-id> <instance-id>",
	Short: "Fetch one instance with relations and attachments resolved",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asIDs, _ := cmd.Flags().GetBool("relations-as-ids")

		rec, err := client.GetInstance(cmdContext(cmd), args[0], args[1], entity.GetOptions{
			RelationsAsIDs: asIDs,
		})
		if err != nil {
			return fmt.Errorf("failed to get instance: %w", err)
		}

		if jsonOutput {
			printJSON(rec)
		} else {
			printRecord(rec)
		}
		return nil
	},
}

func init() {
	getCmd.Flags().Bool("relations-as-ids", false, "return relation fields as id lists")
}
