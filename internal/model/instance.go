package model

import "time"

// Instance is one record of a runtime-defined entity. Scalar field
// values live in the Data blob keyed by field name; relation and
// attachment values are resolved from their own tables.
type Instance struct {
	ID           string         `json:"id"`
	Slug         string         `json:"slug"`
	DefinitionID string         `json:"definitionId"`
	ProjectID    string         `json:"projectId"`
	Data         map[string]any `json:"data"`
	CreatedBy    string         `json:"createdBy,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// FlatRecord is the client-facing shape of an instance: identity
// columns and data keys merged into a single level, with resolved
// relation and attachment values in place of raw edge rows.
type FlatRecord map[string]any

// Flatten merges the instance's identity columns with its data blob.
// Data keys never shadow identity keys.
func (in *Instance) Flatten() FlatRecord {
	rec := make(FlatRecord, len(in.Data)+7)
	for k, v := range in.Data {
		rec[k] = v
	}
	rec["id"] = in.ID
	rec["slug"] = in.Slug
	rec["definition_id"] = in.DefinitionID
	rec["project_id"] = in.ProjectID
	if in.CreatedBy != "" {
		rec["created_by"] = in.CreatedBy
	}
	rec["created_at"] = in.CreatedAt
	rec["updated_at"] = in.UpdatedAt
	return rec
}
