package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   map[uuid.UUID]int
	traces  map[uuid.UUID]trace.TraceID
	release chan struct{} // when set, Run blocks until it is closed
	err     error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{calls: map[uuid.UUID]int{}, traces: map[uuid.UUID]trace.TraceID{}}
}

func (f *fakeRunner) Run(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	f.calls[requestID]++
	f.traces[requestID] = trace.SpanContextFromContext(ctx).TraceID()
	release := f.release
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		}
	}
	return uuid.New(), f.err
}

func (f *fakeRunner) traceOf(id uuid.UUID) trace.TraceID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.traces[id]
}

func (f *fakeRunner) count(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunQueue_ProcessesJobs(t *testing.T) {
	r := newFakeRunner()
	q := NewRunQueue(r, testLogger(), WithWorkers(3), WithQueueSize(4))

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: id}))
	}
	q.Shutdown(context.Background())

	for _, id := range ids {
		assert.Equal(t, 1, r.count(id))
		assert.False(t, q.InFlight(id))
	}
}

func TestRunQueue_DeduplicatesInFlight(t *testing.T) {
	r := newFakeRunner()
	r.release = make(chan struct{})
	q := NewRunQueue(r, testLogger(), WithWorkers(1))

	id := uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: id}))
	require.Eventually(t, func() bool { return r.count(id) == 1 }, time.Second, 5*time.Millisecond)

	// still running: a second enqueue is dropped
	require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: id}))
	assert.True(t, q.InFlight(id))

	close(r.release)
	require.Eventually(t, func() bool { return !q.InFlight(id) }, time.Second, 5*time.Millisecond)

	// finished: it can be queued again
	require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: id}))
	q.Shutdown(context.Background())
	assert.Equal(t, 2, r.count(id))
}

func TestRunQueue_FailedRunReleasesRequest(t *testing.T) {
	r := newFakeRunner()
	r.err = errors.New("boom")
	q := NewRunQueue(r, testLogger(), WithWorkers(1))

	id := uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: id}))
	q.Shutdown(context.Background())
	assert.Equal(t, 1, r.count(id))
	assert.False(t, q.InFlight(id))
}

func TestRunQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewRunQueue(newFakeRunner(), testLogger())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{RequestID: uuid.New()})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestRunQueue_EnqueueRespectsContextWhenFull(t *testing.T) {
	r := newFakeRunner()
	r.release = make(chan struct{})
	q := NewRunQueue(r, testLogger(), WithWorkers(1), WithQueueSize(1))

	first, second, third := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: first}))
	require.Eventually(t, func() bool { return r.count(first) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: second}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{RequestID: third})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, q.InFlight(third))

	close(r.release)
	q.Shutdown(context.Background())
	assert.Equal(t, 1, r.count(second))
	assert.Zero(t, r.count(third))
}

func TestRunQueue_RunContinuesOriginTrace(t *testing.T) {
	r := newFakeRunner()
	q := NewRunQueue(r, testLogger(), WithWorkers(1))

	origin := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	traced, plain := uuid.New(), uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: traced, Origin: origin}))
	require.NoError(t, q.Enqueue(context.Background(), Job{RequestID: plain}))
	q.Shutdown(context.Background())

	assert.Equal(t, origin.TraceID(), r.traceOf(traced))
	assert.False(t, r.traceOf(plain).IsValid())
}

func TestJob_TraceID(t *testing.T) {
	assert.Empty(t, Job{}.TraceID())
	tid := trace.TraceID{1}
	j := Job{Origin: trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: trace.SpanID{1}})}
	assert.Equal(t, tid.String(), j.TraceID())
}
