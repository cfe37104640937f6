// Package store defines the persistence interface for entity
// definitions, instances, relation edges, and attachments.
package store

import (
	"context"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// Store is the interface for entity persistence backends.
type Store interface {
	// GetDefinition fetches a definition and its fields in one read.
	// Fields are sorted by display index.
	GetDefinition(ctx context.Context, definitionID string) (*model.Definition, error)

	// ListDefinitions returns every definition of a project, fields
	// included, sorted by name.
	ListDefinitions(ctx context.Context, projectID string) ([]*model.Definition, error)

	// GetInstance fetches one instance scoped to a definition and project.
	GetInstance(ctx context.Context, id, definitionID, projectID string) (*model.Instance, error)

	// GetInstancesByIDs fetches instances by id regardless of
	// definition. Missing ids are skipped, not errors.
	GetInstancesByIDs(ctx context.Context, ids []string) ([]*model.Instance, error)

	// ListInstances returns one page of instances matching the filter
	// plus the total match count before paging.
	ListInstances(ctx context.Context, filter model.InstanceFilter) ([]*model.Instance, int, error)

	// SearchInstances runs a server-side case-insensitive search of term
	// across the named data fields, returning one page of matches plus
	// the total match count. A non-nil ids slice restricts the candidate
	// set; an empty non-nil slice matches nothing.
	SearchInstances(ctx context.Context, definitionID, projectID, term string, fields, ids []string, limit, offset int) ([]*model.Instance, int, error)

	// SlugExists probes whether a slug is taken within a definition.
	SlugExists(ctx context.Context, definitionID, slug string) (bool, error)

	// CreateInstance persists a new instance row.
	CreateInstance(ctx context.Context, inst *model.Instance) error

	// UpdateInstanceData replaces the data blob of an instance and
	// refreshes its updated_at, returning the new timestamp.
	UpdateInstanceData(ctx context.Context, id, definitionID, projectID string, data map[string]any) (*model.Instance, error)

	// DeleteInstance removes an instance row. Edge and attachment rows
	// referencing it are removed by cascade.
	DeleteInstance(ctx context.Context, id, definitionID, projectID string) error

	// EdgesBySource returns the edges leaving sourceID through any of
	// the given relation fields.
	EdgesBySource(ctx context.Context, sourceID string, fieldIDs []string) ([]*model.Edge, error)

	// EdgesByField returns the edges of one relation field whose
	// target is in targetIDs.
	EdgesByField(ctx context.Context, fieldID string, targetIDs []string) ([]*model.Edge, error)

	// EdgeSources returns the distinct source ids having at least one
	// edge matching any of the field/target pairs.
	EdgeSources(ctx context.Context, pairs []model.FieldTarget) ([]string, error)

	// RelatedInstances joins edges from the given sources with their
	// target instances in a single read.
	RelatedInstances(ctx context.Context, sourceIDs, fieldIDs []string) ([]*model.RelatedTarget, error)

	// InsertEdges persists relation edges in one statement.
	InsertEdges(ctx context.Context, edges []*model.Edge) error

	// DeleteEdges removes every edge leaving sourceID through any of
	// the given fields.
	DeleteEdges(ctx context.Context, sourceID string, fieldIDs []string) error

	// Attachments returns attachment rows for the given instances and
	// fields, oldest first.
	Attachments(ctx context.Context, instanceIDs, fieldIDs []string) ([]*model.Attachment, error)

	// AddAttachment persists a new attachment row.
	AddAttachment(ctx context.Context, att *model.Attachment) error

	// RemoveAttachment deletes an attachment row.
	RemoveAttachment(ctx context.Context, id string) error

	// Close releases the underlying resources.
	Close() error
}
