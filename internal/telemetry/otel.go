// Package telemetry configures OpenTelemetry tracing for the binaries.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/joseph-ayodele/course-grounding/internal/common"
)

// Init installs a global tracer provider that writes spans as JSON to w (stderr when nil).
// When tracing is disabled it installs nothing and the returned shutdown is a no-op.
func Init(ctx context.Context, logger *slog.Logger, cfg common.TelemetryConfig, w io.Writer) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop
	}
	if logger == nil {
		logger = slog.Default()
	}
	if w == nil {
		w = os.Stderr
	}
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "course-grounding"
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		logger.Warn("otel exporter init failed (continuing)", "error", err)
		return noop
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", name),
		attribute.String("service.component", name),
	))
	if err != nil {
		logger.Warn("otel resource init failed (continuing)", "error", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("otel tracing initialized", "service", name)
	return tp.Shutdown
}
