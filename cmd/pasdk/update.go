package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IgorChugurov/public-api-sdk/internal/entity"
)

var updateCmd = &cobra.Command{
	Use:   "update <definition-id> <instance-id>",
	Short: "Merge data fields and replace relations of an instance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataPairs, _ := cmd.Flags().GetStringArray("data")
		data, err := parseData(dataPairs)
		if err != nil {
			return err
		}
		relPairs, _ := cmd.Flags().GetStringArray("relation")
		relations, err := parseRelations(relPairs)
		if err != nil {
			return err
		}
		if len(data) == 0 && len(relations) == 0 {
			return fmt.Errorf("nothing to update: pass --data or --relation")
		}

		rec, err := client.UpdateInstance(cmdContext(cmd), args[0], args[1], entity.UpdateData{
			Data:      data,
			Relations: relations,
		})
		if err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
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
	updateCmd.Flags().StringArrayP("data", "d", nil, "data field as key=value (repeatable, JSON values allowed)")
	updateCmd.Flags().StringArrayP("relation", "r", nil, "relation as field=id[,id] (repeatable, replaces the field's edges)")
}
