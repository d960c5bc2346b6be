package domain

import "time"

// AttachmentMeta stores metadata for case attachments. Binary content lives
// in external object storage and is keyed by StorageKey.
type AttachmentMeta struct {
	ID         string
	CaseID     string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
