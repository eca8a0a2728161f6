package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Chunk is a citable span of one page's extracted text.
type Chunk struct {
	ID          string    `json:"chunk_id"`
	DocID       uuid.UUID `json:"doc_id"`
	RunID       uuid.UUID `json:"run_id"`
	PageNum     int       `json:"page_num"`
	SpanStart   int       `json:"span_start"`
	SpanEnd     int       `json:"span_end"`
	SnippetText string    `json:"snippet_text"`
	FullText    string    `json:"full_text"`
}

// ChunkID derives the content-addressed id of a chunk. Identical input always yields the same id.
func ChunkID(docID, runID uuid.UUID, pageNum, spanStart, spanEnd int, fullText string) string {
	raw := fmt.Sprintf("%s|%s|%d|%d|%d|%s", docID, runID, pageNum, spanStart, spanEnd, fullText)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
