package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IgorChugurov/public-api-sdk/internal/entity"
)

// parseData converts -d key=value pairs into the data map. Values that
// parse as JSON (numbers, booleans, null, arrays, objects, quoted
// strings) are embedded as-is; everything else becomes a string.
func parseData(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid data %q: expected key=value", p)
		}
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			m[k] = parsed
		} else {
			m[k] = v
		}
	}
	return m, nil
}

// parseRelations converts -r field=id1,id2 pairs into the relations map.
func parseRelations(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid relation %q: expected field=id[,id]", p)
		}
		var ids []string
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		m[k] = ids
	}
	return m, nil
}

var createCmd = &cobra.Command{
	Use:   "create <definition-id> <name>",
	Short: "Create a new instance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataPairs, _ := cmd.Flags().GetStringArray("data")
		data, err := parseData(dataPairs)
		if err != nil {
			return err
		}
		if data == nil {
			data = make(map[string]any, 1)
		}
		data["name"] = args[1]

		relPairs, _ := cmd.Flags().GetStringArray("relation")
		relations, err := parseRelations(relPairs)
		if err != nil {
			return err
		}

		rec, err := client.CreateInstance(cmdContext(cmd), args[0], entity.CreateData{
			Data:      data,
			Relations: relations,
		})
		if err != nil {
			return fmt.Errorf("failed to create instance: %w", err)
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
	createCmd.Flags().StringArrayP("data", "d", nil, "data field as key=value (repeatable, JSON values allowed)")
	createCmd.Flags().StringArrayP("relation", "r", nil, "relation as field=id[,id] (repeatable)")
}
