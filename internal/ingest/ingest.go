// Package ingest registers local course documents against a request.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	DocID        string
	Filename     string
	Deduplicated bool  // an active document with the same content already existed
	Replaced     int64 // older active documents with the same filename that were deactivated
	HashHex      string
	SizeBytes    int64
	CreatedAt    time.Time
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the CLI depends on.
type Ingestor interface {
	// IngestPath registers a single file.
	IngestPath(ctx context.Context, requestID uuid.UUID, path string) (IngestionResult, error)
	// IngestDirectory registers all matching files under root.
	IngestDirectory(ctx context.Context, requestID uuid.UUID, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
