package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IgorChugurov/public-api-sdk/internal/entity"
	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// parseFilters converts repeated --filter field=v1,v2 flags into the
// filter map. Repeating a field appends to its values.
func parseFilters(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q: expected field=value[,value]", p)
		}
		out[k] = append(out[k], strings.Split(v, ",")...)
	}
	return out, nil
}

// parseFilterModes converts repeated --filter-mode field=all flags.
func parseFilterModes(pairs []string) (map[string]entity.FilterMode, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]entity.FilterMode, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid filter mode %q: expected field=any|all", p)
		}
		switch entity.FilterMode(v) {
		case entity.FilterAny, entity.FilterAll:
			out[k] = entity.FilterMode(v)
		default:
			return nil, fmt.Errorf("invalid filter mode %q for field %q", v, k)
		}
	}
	return out, nil
}

var listCmd = &cobra.Command{
	Use:   "list <definition-id>",
	Short: "List instances of a definition with paging and filters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")
		sortBy, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")
		asIDs, _ := cmd.Flags().GetBool("relations-as-ids")

		filterPairs, _ := cmd.Flags().GetStringArray("filter")
		filters, err := parseFilters(filterPairs)
		if err != nil {
			return err
		}
		modePairs, _ := cmd.Flags().GetStringArray("filter-mode")
		modes, err := parseFilterModes(modePairs)
		if err != nil {
			return err
		}

		res, err := client.ListInstances(cmdContext(cmd), args[0], entity.ListParams{
			Page:           page,
			Limit:          limit,
			Search:         search,
			Filters:        filters,
			FilterModes:    modes,
			SortBy:         sortBy,
			SortOrder:      model.SortOrder(order),
			RelationsAsIDs: asIDs,
		})
		if err != nil {
			return fmt.Errorf("failed to list instances: %w", err)
		}

		if jsonOutput {
			printJSON(res)
		} else {
			printRecordList(res)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Int("page", 1, "page number (1-based)")
	listCmd.Flags().Int("limit", 0, "page size (0 = definition default)")
	listCmd.Flags().String("search", "", "search term for searchable fields")
	listCmd.Flags().StringArray("filter", nil, "filter as field=value[,value] (repeatable)")
	listCmd.Flags().StringArray("filter-mode", nil, "relation filter mode as field=any|all (repeatable)")
	listCmd.Flags().String("sort", "", "sort column (created_at, updated_at, slug, id)")
	listCmd.Flags().String("order", "", "sort order (asc or desc)")
	listCmd.Flags().Bool("relations-as-ids", false, "return relation fields as id lists")
}
