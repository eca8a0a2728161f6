package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RunQueue feeds extraction jobs to a fixed pool of workers. A request that is already
// queued or running is not queued again.
type RunQueue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex // guards closed and sends on ch
	closed bool

	inflightMu sync.Mutex
	inflight   map[uuid.UUID]struct{}
}

type Option func(*RunQueue)

func WithWorkers(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithRunTimeout(d time.Duration) Option {
	return func(q *RunQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewRunQueue(runner Runner, logger *slog.Logger, opts ...Option) *RunQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &RunQueue{
		runner:   runner,
		logger:   logger,
		workers:  2,
		timeout:  10 * time.Minute,
		ch:       make(chan Job, 64),
		inflight: make(map[uuid.UUID]struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RunQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.process(workerID, job)
				}
				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *RunQueue) process(workerID int, job Job) {
	defer q.release(job.RequestID)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.Origin.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, job.Origin)
	}
	log := q.logger.With("worker_id", workerID, "request_id", job.RequestID, "trace_id", job.TraceID())

	runID, err := q.runner.Run(ctx, job.RequestID)
	if err != nil {
		log.Error("extraction run failed", "run_id", runID, "error", err)
		return
	}
	log.Info("extraction run completed", "run_id", runID,
		"queued_for", time.Since(job.SubmittedAt).Round(time.Millisecond))
}

func (q *RunQueue) claim(id uuid.UUID) bool {
	q.inflightMu.Lock()
	defer q.inflightMu.Unlock()
	if _, ok := q.inflight[id]; ok {
		return false
	}
	q.inflight[id] = struct{}{}
	return true
}

func (q *RunQueue) release(id uuid.UUID) {
	q.inflightMu.Lock()
	delete(q.inflight, id)
	q.inflightMu.Unlock()
}

// InFlight reports whether requestID is queued or running.
func (q *RunQueue) InFlight(requestID uuid.UUID) bool {
	q.inflightMu.Lock()
	defer q.inflightMu.Unlock()
	_, ok := q.inflight[requestID]
	return ok
}

// Enqueue queues job. It blocks while the queue is full, until ctx is done.
func (q *RunQueue) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "request_id", job.RequestID)
		return ErrQueueClosed
	}
	if !q.claim(job.RequestID) {
		q.logger.Debug("request already queued or running", "request_id", job.RequestID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued request for extraction", "request_id", job.RequestID, "trace_id", job.TraceID())
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "request_id", job.RequestID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		q.release(job.RequestID)
		return ctx.Err()
	}
}

func (q *RunQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
