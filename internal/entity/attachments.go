package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/IgorChugurov/public-api-sdk/internal/events"
	"github.com/IgorChugurov/public-api-sdk/internal/idgen"
	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// AddAttachment stores file content for an attachment field and links
// it to an instance. Size and count limits come from the definition.
func (c *Client) AddAttachment(ctx context.Context, definitionID, instanceID, fieldName, fileName, contentType string, content []byte) (*model.Attachment, error) {
	const op = "entity.attachment.add"

	def, err := c.schemas.Definition(ctx, definitionID)
	if err != nil {
		return nil, classify(op, err)
	}

	field := def.Field(fieldName)
	if field == nil || !field.Kind.IsAttachment() {
		return nil, validationError(op, fmt.Sprintf("%s is not an attachment field", fieldName))
	}

	if _, err := c.store.GetInstance(ctx, instanceID, def.ID, c.projectID); err != nil {
		return nil, classify(op, err)
	}

	if def.MaxFileSizeMB > 0 && len(content) > def.MaxFileSizeMB<<20 {
		return nil, validationError(op, fmt.Sprintf("file exceeds the %d MB limit", def.MaxFileSizeMB))
	}
	if def.MaxFilesCount > 0 {
		existing, err := c.store.Attachments(ctx, []string{instanceID}, []string{field.ID})
		if err != nil {
			return nil, classify(op, err)
		}
		if len(existing) >= def.MaxFilesCount {
			return nil, validationError(op, fmt.Sprintf("field %s already holds %d files", fieldName, def.MaxFilesCount))
		}
	}

	id, err := idgen.Attachment()
	if err != nil {
		return nil, classify(op, err)
	}

	key := fmt.Sprintf("%s/%s/%s-%s", c.projectID, instanceID, id, fileName)
	if c.blobs != nil {
		if err := c.blobs.Put(ctx, key, content, contentType); err != nil {
			return nil, classify(op, err)
		}
	}

	att := &model.Attachment{
		ID:          id,
		InstanceID:  instanceID,
		FieldID:     field.ID,
		Key:         key,
		Name:        fileName,
		Size:        int64(len(content)),
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.store.AddAttachment(ctx, att); err != nil {
		return nil, classify(op, err)
	}

	c.publish(ctx, events.TopicAttachmentAdded, events.AttachmentAdded{Attachment: att})
	return att, nil
}

// RemoveAttachment unlinks an attachment and deletes its content.
// Blob deletion is best effort; the row deletion decides the outcome.
func (c *Client) RemoveAttachment(ctx context.Context, instanceID, attachmentID string) error {
	const op = "entity.attachment.remove"

	rows, err := c.store.Attachments(ctx, []string{instanceID}, nil)
	if err != nil {
		return classify(op, err)
	}
	var att *model.Attachment
	for _, row := range rows {
		if row.ID == attachmentID {
			att = row
			break
		}
	}
	if att == nil {
		return &Error{Kind: KindNotFound, Op: op, Msg: "attachment not found"}
	}

	if c.blobs != nil {
		if err := c.blobs.Delete(ctx, att.Key); err != nil {
			c.log.Warn("delete attachment content failed", "key", att.Key, "error", err)
		}
	}

	if err := c.store.RemoveAttachment(ctx, attachmentID); err != nil {
		return classify(op, err)
	}

	c.publish(ctx, events.TopicAttachmentRemoved, events.AttachmentRemoved{
		InstanceID:   instanceID,
		AttachmentID: attachmentID,
	})
	return nil
}
