package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/joseph-ayodele/course-grounding/internal/common"
)

func TestInit_Disabled(t *testing.T) {
	shutdown := Init(context.Background(), nil, common.TelemetryConfig{}, nil)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown := Init(context.Background(), nil, common.TelemetryConfig{Enabled: true, ServiceName: "grounding-test"}, &buf)

	_, span := otel.Tracer("test").Start(context.Background(), "extraction.run")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "extraction.run")
	assert.Contains(t, buf.String(), "grounding-test")
}
