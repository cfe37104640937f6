package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/IgorChugurov/public-api-sdk/internal/entity"
	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// printRecord shows one flattened record as key: value lines, identity
// fields first, the rest sorted by name.
func printRecord(rec model.FlatRecord) {
	identity := []string{"id", "slug", "definition_id", "project_id", "created_by", "created_at", "updated_at"}
	shown := make(map[string]bool, len(identity))
	for _, k := range identity {
		if v, ok := rec[k]; ok {
			fmt.Printf("%-14s %v\n", k+":", v)
			shown[k] = true
		}
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		if !shown[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-14s %s\n", k+":", formatValue(rec[k]))
	}
}

func formatValue(v any) string {
	switch v.(type) {
	case nil, string, bool, float64, int, int64:
		return fmt.Sprintf("%v", v)
	default:
		// Nested records and id lists render as compact JSON.
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func printRecordList(res *entity.ListResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tNAME\tCREATED AT")
	for _, rec := range res.Data {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", rec["id"], rec["slug"], rec["name"], rec["created_at"])
	}
	w.Flush()
	p := res.Pagination
	fmt.Printf("\nPage %d/%d (%d total)\n", p.Page, p.TotalPages, p.Total)
}

func printDefinitionList(defs []*model.Definition) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tNAME\tFIELDS\tPAGE SIZE")
	for _, d := range defs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", d.ID, d.Slug, d.Name, len(d.Fields), d.PageSize)
	}
	w.Flush()
}

func printDefinition(d *model.Definition) {
	fmt.Printf("ID:        %s\n", d.ID)
	fmt.Printf("Slug:      %s\n", d.Slug)
	fmt.Printf("Name:      %s\n", d.Name)
	fmt.Printf("Project:   %s\n", d.ProjectID)
	fmt.Println("Fields:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tKIND\tREQUIRED\tSEARCHABLE\tFILTERABLE\tIN TABLE\tTARGET")
	for _, f := range d.Fields {
		fmt.Fprintf(w, "  %s\t%s\t%t\t%t\t%t\t%t\t%s\n",
			f.Name, f.Kind, f.Required, f.Searchable, f.Filterable, f.InTable, f.TargetDefinitionID)
	}
	w.Flush()
}
