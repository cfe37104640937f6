package model

import "time"

// Edge is one directed relation row linking a source instance to a
// target instance through a specific relation field.
type Edge struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"sourceId"`
	TargetID  string    `json:"targetId"`
	FieldID   string    `json:"fieldId"`
	Kind      FieldKind `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// FieldTarget pairs a relation field with one required target, used
// when matching sources against relation filters.
type FieldTarget struct {
	FieldID  string
	TargetID string
}

// RelatedTarget is one row of a joined edge-and-target read: the
// target instance together with the edge that reached it.
type RelatedTarget struct {
	SourceID string
	FieldID  string
	Target   *Instance
}
