package entity

import "github.com/IgorChugurov/public-api-sdk/internal/model"

// flattenRecord builds the client-facing record for an instance:
// identity columns and data keys on one level, with every relation
// field materialized from the resolved target map.
//
// With asIDs set, a relation value is always a list of target ids.
// Otherwise targets flatten to nested records, and single-cardinality
// fields collapse to their first target or nil.
func flattenRecord(inst *model.Instance, relFields []*model.Field, related map[string][]*model.Instance, asIDs bool) model.FlatRecord {
	rec := inst.Flatten()

	for _, f := range relFields {
		targets := related[f.Name]

		if asIDs {
			ids := make([]string, 0, len(targets))
			for _, t := range targets {
				ids = append(ids, t.ID)
			}
			rec[f.Name] = ids
			continue
		}

		nested := make([]model.FlatRecord, 0, len(targets))
		for _, t := range targets {
			nested = append(nested, t.Flatten())
		}

		if f.Kind.IsSingle() {
			if len(nested) > 0 {
				rec[f.Name] = nested[0]
			} else {
				rec[f.Name] = nil
			}
			continue
		}
		rec[f.Name] = nested
	}

	return rec
}
