package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/constants"
)

// Request is the case that owns a set of documents and extraction runs.
type Request struct {
	ID        uuid.UUID               `json:"request_id"`
	Status    constants.RequestStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}
