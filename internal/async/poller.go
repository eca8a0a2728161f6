package async

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PendingFunc lists requests waiting for extraction.
type PendingFunc func(ctx context.Context) ([]uuid.UUID, error)

// Poller periodically moves pending requests onto a RunQueue.
type Poller struct {
	pending  PendingFunc
	queue    Queue
	interval time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewPoller(pending PendingFunc, queue Queue, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		pending:  pending,
		queue:    queue,
		interval: interval,
		logger:   logger,
		tracer:   otel.Tracer("github.com/joseph-ayodele/course-grounding/internal/async"),
	}
}

// Run polls until ctx is done. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		p.Poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Poll enqueues every pending request that is not already in flight and returns how many
// were enqueued.
func (p *Poller) Poll(ctx context.Context) int {
	ctx, span := p.tracer.Start(ctx, "extraction.poll")
	defer span.End()

	ids, err := p.pending(ctx)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, context.Canceled) {
			p.logger.Error("poll pending requests failed", "error", err)
		}
		return 0
	}
	n := 0
	for _, id := range ids {
		if p.queue.InFlight(id) {
			continue
		}
		job := Job{RequestID: id, SubmittedAt: time.Now(), Origin: span.SpanContext()}
		if err := p.queue.Enqueue(ctx, job); err != nil {
			p.logger.Warn("enqueue failed", "request_id", id, "error", err)
			return n
		}
		n++
	}
	span.SetAttributes(attribute.Int("pending", len(ids)), attribute.Int("enqueued", n))
	if n > 0 {
		p.logger.Debug("poll enqueued requests", "count", n, "trace_id", span.SpanContext().TraceID().String())
	}
	return n
}
