package model

import "time"

// FieldKind identifies how a field's value is stored and resolved.
// Scalar kinds live inside the instance data blob, relation kinds are
// backed by rows in entity_relations, and the files kind is backed by
// rows in entity_attachments.
type FieldKind string

const (
	KindText      FieldKind = "text"
	KindNumber    FieldKind = "number"
	KindBoolean   FieldKind = "boolean"
	KindTimestamp FieldKind = "timestamp"

	KindManyToMany FieldKind = "manyToMany"
	KindManyToOne  FieldKind = "manyToOne"
	KindOneToMany  FieldKind = "oneToMany"
	KindOneToOne   FieldKind = "oneToOne"

	KindFiles FieldKind = "files"
)

// IsValid returns true if k is a recognized field kind.
func (k FieldKind) IsValid() bool {
	switch k {
	case KindText, KindNumber, KindBoolean, KindTimestamp,
		KindManyToMany, KindManyToOne, KindOneToMany, KindOneToOne,
		KindFiles:
		return true
	}
	return false
}

// IsRelation reports whether the kind is backed by relation edges.
func (k FieldKind) IsRelation() bool {
	switch k {
	case KindManyToMany, KindManyToOne, KindOneToMany, KindOneToOne:
		return true
	}
	return false
}

// IsSingle reports whether a relation kind holds at most one target.
func (k FieldKind) IsSingle() bool {
	return k == KindManyToOne || k == KindOneToOne
}

// IsAttachment reports whether the kind is backed by attachment rows.
func (k FieldKind) IsAttachment() bool {
	return k == KindFiles
}

// DisplayIndexUnset is stored for fields with no explicit display
// position so they sort after every positioned field.
const DisplayIndexUnset = 999

// Field describes one column of a runtime-defined entity.
type Field struct {
	ID           string    `json:"id"`
	DefinitionID string    `json:"definitionId"`
	Name         string    `json:"name"`
	Kind         FieldKind `json:"kind"`
	Label        string    `json:"label,omitempty"`
	Required     bool      `json:"required"`
	Searchable   bool      `json:"searchable"`
	Filterable   bool      `json:"filterable"`
	InTable      bool      `json:"displayInTable"`
	DisplayIndex int       `json:"displayIndex"`

	// TargetDefinitionID names the definition the relation points at.
	// Empty for non-relation kinds.
	TargetDefinitionID string `json:"targetDefinitionId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
