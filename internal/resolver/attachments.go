package resolver

import (
	"context"
	"fmt"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// AttachmentStore is the subset of the persistence interface the
// attachment resolver needs.
type AttachmentStore interface {
	Attachments(ctx context.Context, instanceIDs, fieldIDs []string) ([]*model.Attachment, error)
}

// Attachments resolves attachment field values in one batched read.
type Attachments struct {
	store AttachmentStore
}

// NewAttachments creates an attachment resolver over the given store.
func NewAttachments(st AttachmentStore) *Attachments {
	return &Attachments{store: st}
}

// Resolve fetches attachment ids for the given instances and fields,
// grouped by instance id and then field id.
func (a *Attachments) Resolve(ctx context.Context, fields []*model.Field, instanceIDs []string) (map[string]map[string][]string, error) {
	out := map[string]map[string][]string{}
	if len(fields) == 0 || len(instanceIDs) == 0 {
		return out, nil
	}

	fieldIDs := make([]string, len(fields))
	for i, f := range fields {
		fieldIDs[i] = f.ID
	}

	atts, err := a.store.Attachments(ctx, instanceIDs, fieldIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve attachments: %w", err)
	}

	for _, att := range atts {
		m := out[att.InstanceID]
		if m == nil {
			m = map[string][]string{}
			out[att.InstanceID] = m
		}
		m[att.FieldID] = append(m[att.FieldID], att.ID)
	}
	return out, nil
}

// ApplyAttachments writes resolved attachment ids into a data map. A
// field's raw data value survives only when it already holds something
// and no attachment rows exist for that field.
func ApplyAttachments(data map[string]any, fields []*model.Field, byField map[string][]string) {
	for _, f := range fields {
		ids := byField[f.ID]
		if len(ids) > 0 {
			data[f.Name] = ids
			continue
		}
		if v, ok := data[f.Name]; !ok || v == nil || v == "" {
			data[f.Name] = []string{}
		}
	}
}
