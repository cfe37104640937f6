package events

import (
	"context"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// Event topic constants
const (
	TopicInstanceCreated = "entity.instance.created"
	TopicInstanceUpdated = "entity.instance.updated"
	TopicInstanceDeleted = "entity.instance.deleted"

	TopicAttachmentAdded   = "entity.attachment.added"
	TopicAttachmentRemoved = "entity.attachment.removed"

	TopicSchemaCacheCleared = "entity.schema.cache_cleared"
)

// Event types

type InstanceCreated struct {
	DefinitionID string           `json:"definition_id"`
	Record       model.FlatRecord `json:"record"`
	Actor        string           `json:"actor,omitempty"`
}

type InstanceUpdated struct {
	DefinitionID string           `json:"definition_id"`
	Record       model.FlatRecord `json:"record"`
	Changes      map[string]any   `json:"changes"` // field name -> new value
	Actor        string           `json:"actor,omitempty"`
}

type InstanceDeleted struct {
	DefinitionID string `json:"definition_id"`
	InstanceID   string `json:"instance_id"`
	Actor        string `json:"actor,omitempty"`
}

type AttachmentAdded struct {
	Attachment *model.Attachment `json:"attachment"`
}

type AttachmentRemoved struct {
	InstanceID   string `json:"instance_id"`
	AttachmentID string `json:"attachment_id"`
}

type SchemaCacheCleared struct {
	ProjectID string `json:"project_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
