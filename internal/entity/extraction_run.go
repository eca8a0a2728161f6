package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/constants"
)

// ExtractionRun is one execution of the pipeline over a request's active documents.
type ExtractionRun struct {
	ID             uuid.UUID           `json:"run_id"`
	RequestID      uuid.UUID           `json:"request_id"`
	Status         constants.RunStatus `json:"status"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage   *string             `json:"error_message,omitempty"`
	ManifestURI    *string             `json:"manifest_uri,omitempty"`
	ManifestSHA256 *string             `json:"manifest_sha256,omitempty"`
}
