package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job asks for one extraction run over a request's active documents.
type Job struct {
	RequestID   uuid.UUID
	SubmittedAt time.Time
	// Origin is the span that enqueued the job. The run's trace continues from it.
	Origin      trace.SpanContext
}

// TraceID returns the origin trace id, or "" when the job was enqueued untraced.
func (j Job) TraceID() string {
	if !j.Origin.HasTraceID() {
		return ""
	}
	return j.Origin.TraceID().String()
}

// Queue is what the Poller feeds; *RunQueue implements it.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	InFlight(requestID uuid.UUID) bool
	Shutdown(ctx context.Context)
}

// Runner executes one extraction run; *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error)
}
