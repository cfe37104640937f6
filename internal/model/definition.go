package model

import (
	"sort"
	"time"
)

// Definition is the runtime schema of one entity collection. Instances
// of a definition share its field set and live in entity_instances
// rows tagged with the definition id.
type Definition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ProjectID   string `json:"projectId"`

	EnablePagination bool `json:"enablePagination"`
	PageSize         int  `json:"pageSize,omitempty"`
	EnableFilters    bool `json:"enableFilters"`

	MaxFileSizeMB int `json:"maxFileSizeMb,omitempty"`
	MaxFilesCount int `json:"maxFilesCount,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Fields are ordered by display index, ties broken by name.
	Fields []*Field `json:"fields"`
}

// Field returns the field named name, or nil.
func (d *Definition) Field(name string) *Field {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldByID returns the field with the given id, or nil.
func (d *Definition) FieldByID(id string) *Field {
	for _, f := range d.Fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// RelationFields returns the fields backed by relation edges.
func (d *Definition) RelationFields() []*Field {
	var out []*Field
	for _, f := range d.Fields {
		if f.Kind.IsRelation() {
			out = append(out, f)
		}
	}
	return out
}

// TableRelationFields returns relation fields shown in list views.
func (d *Definition) TableRelationFields() []*Field {
	var out []*Field
	for _, f := range d.Fields {
		if f.Kind.IsRelation() && f.InTable {
			out = append(out, f)
		}
	}
	return out
}

// AttachmentFields returns the fields backed by attachment rows.
func (d *Definition) AttachmentFields() []*Field {
	var out []*Field
	for _, f := range d.Fields {
		if f.Kind.IsAttachment() {
			out = append(out, f)
		}
	}
	return out
}

// SearchFields returns the names of searchable text fields, falling
// back to "name" when none are flagged.
func (d *Definition) SearchFields() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Searchable {
			out = append(out, f.Name)
		}
	}
	if len(out) == 0 {
		out = []string{"name"}
	}
	return out
}

// SortFields orders Fields by display index, ties broken by name.
func (d *Definition) SortFields() {
	sort.SliceStable(d.Fields, func(i, j int) bool {
		a, b := d.Fields[i], d.Fields[j]
		if a.DisplayIndex != b.DisplayIndex {
			return a.DisplayIndex < b.DisplayIndex
		}
		return a.Name < b.Name
	})
}
