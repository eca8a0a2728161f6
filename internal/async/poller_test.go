package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestPoller_SkipsInFlight(t *testing.T) {
	r := newFakeRunner()
	r.release = make(chan struct{})
	q := NewRunQueue(r, testLogger(), WithWorkers(1), WithQueueSize(8))

	a, b := uuid.New(), uuid.New()
	p := NewPoller(func(context.Context) ([]uuid.UUID, error) { return []uuid.UUID{a, b}, nil }, q, time.Hour, testLogger())

	assert.Equal(t, 2, p.Poll(context.Background()))
	assert.Equal(t, 0, p.Poll(context.Background()))

	close(r.release)
	q.Shutdown(context.Background())
	assert.Equal(t, 1, r.count(a))
	assert.Equal(t, 1, r.count(b))
}

func TestPoller_ListError(t *testing.T) {
	q := NewRunQueue(newFakeRunner(), testLogger())
	defer q.Shutdown(context.Background())
	p := NewPoller(func(context.Context) ([]uuid.UUID, error) { return nil, errors.New("db down") }, q, 0, testLogger())
	assert.Zero(t, p.Poll(context.Background()))
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	r := newFakeRunner()
	q := NewRunQueue(r, testLogger(), WithWorkers(1))
	id := uuid.New()
	polled := make(chan struct{}, 16)
	p := NewPoller(func(context.Context) ([]uuid.UUID, error) {
		select {
		case polled <- struct{}{}:
		default:
		}
		return []uuid.UUID{id}, nil
	}, q, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); p.Run(ctx) }()

	<-polled
	<-polled
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	q.Shutdown(context.Background())
	require.GreaterOrEqual(t, r.count(id), 1)
}

func TestPoller_JobsCarryPollTrace(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	r := newFakeRunner()
	q := NewRunQueue(r, testLogger(), WithWorkers(1))
	id := uuid.New()
	p := NewPoller(func(context.Context) ([]uuid.UUID, error) { return []uuid.UUID{id}, nil }, q, time.Hour, testLogger())
	p.tracer = tp.Tracer("test")

	require.Equal(t, 1, p.Poll(context.Background()))
	q.Shutdown(context.Background())

	assert.True(t, r.traceOf(id).IsValid())
}
