package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GroundedEvidence is one extracted field. Every stored row has at least one EvidenceCitation.
type GroundedEvidence struct {
	ID        uuid.UUID       `json:"evidence_id"`
	RequestID uuid.UUID       `json:"request_id"`
	RunID     uuid.UUID       `json:"run_id"`
	FactType  string          `json:"fact_type"`
	FactKey   string          `json:"fact_key"`
	FactValue *string         `json:"fact_value,omitempty"`
	FactJSON  json.RawMessage `json:"fact_json,omitempty"`
	Unknown   bool            `json:"unknown"`
	Notes     *string         `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// EvidenceCitation links an evidence row to a chunk that supports it.
type EvidenceCitation struct {
	EvidenceID uuid.UUID `json:"evidence_id"`
	ChunkID    string    `json:"chunk_id"`
}
