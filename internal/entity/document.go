package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an uploaded course document for data transfer between layers.
// Rows are never deleted; a replacement flips IsActive off.
type Document struct {
	ID          uuid.UUID `json:"doc_id"`
	RequestID   uuid.UUID `json:"request_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	StorageURI  string    `json:"storage_uri"`
	ContentHash string    `json:"content_hash"`
	SizeBytes   int64     `json:"size_bytes"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
