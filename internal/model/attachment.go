package model

import "time"

// Attachment is one stored file linked to an instance through a
// files-kind field. Key locates the content in blob storage.
type Attachment struct {
	ID          string    `json:"id"`
	InstanceID  string    `json:"instanceId"`
	FieldID     string    `json:"fieldId"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
