// Package pipeline runs a batch extraction for one request: acquire text, chunk, extract
// facts, ground them in citations and write the run manifest.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/chunking"
	"github.com/joseph-ayodele/course-grounding/internal/citation"
	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
	"github.com/joseph-ayodele/course-grounding/internal/extract"
	"github.com/joseph-ayodele/course-grounding/internal/repository"
)

const instrumentation = "github.com/joseph-ayodele/course-grounding/internal/pipeline"

type Config struct {
	ManifestDir      string
	OCRDir           string // where OCR'd copies of scanned PDFs are written
	PreferOCR        bool
	ChunkMaxChars    int
	CitationMaxPages int
	PrepareWorkers   int
}

// ConfigFrom maps the application config onto the orchestrator's.
func ConfigFrom(c *common.Config) Config {
	return Config{
		ManifestDir:      c.Pipeline.ManifestDir,
		OCRDir:           c.OCR.ArtifactDir,
		PreferOCR:        c.OCR.PreferOCR,
		ChunkMaxChars:    c.Pipeline.ChunkMaxChars,
		CitationMaxPages: c.Pipeline.CitationMaxPages,
		PrepareWorkers:   c.Pipeline.PrepareWorkers,
	}
}

// Orchestrator executes extraction runs. A run has three phases, each in its own
// transaction: A creates the run, B writes all chunks and evidence, C records the
// manifest. Any failure after A marks the run failed and the request needs_info.
type Orchestrator struct {
	logger *slog.Logger
	cfg    Config
	store  *repository.Store
	source extract.TextSource

	tracer   trace.Tracer
	runs     otelmetric.Int64Counter
	evidence otelmetric.Int64Counter
}

func NewOrchestrator(logger *slog.Logger, cfg Config, store *repository.Store, source extract.TextSource) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkMaxChars <= 0 {
		cfg.ChunkMaxChars = chunking.DefaultMaxChars
	}
	if cfg.CitationMaxPages <= 0 {
		cfg.CitationMaxPages = citation.DefaultMaxPagesToScan
	}
	if cfg.PrepareWorkers <= 0 {
		cfg.PrepareWorkers = 1
	}
	meter := otel.Meter(instrumentation)
	runs, _ := meter.Int64Counter("extraction.runs", otelmetric.WithDescription("finished extraction runs by status"))
	evidence, _ := meter.Int64Counter("extraction.evidence", otelmetric.WithDescription("grounded evidence rows written"))
	return &Orchestrator{
		logger:   logger,
		cfg:      cfg,
		store:    store,
		source:   source,
		tracer:   otel.Tracer(instrumentation),
		runs:     runs,
		evidence: evidence,
	}
}

// Run executes one extraction run for requestID and returns the run id. When the request
// has no active documents it returns ErrNoActiveDocuments and no run is created.
func (o *Orchestrator) Run(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	ctx, span := o.tracer.Start(ctx, "extraction.run", trace.WithAttributes(attribute.String("request_id", requestID.String())))
	defer span.End()

	run, docs, err := o.phaseA(ctx, requestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("extraction.phase_a.failed", "request_id", requestID, "err", err)
		return uuid.Nil, err
	}
	span.SetAttributes(attribute.String("run_id", run.ID.String()))
	o.logger.Info("extraction.started", "request_id", requestID, "run_id", run.ID, "documents", len(docs))

	b, err := o.phaseB(ctx, run, docs)
	if err == nil {
		err = o.phaseC(ctx, run, b)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.fail(ctx, run, err)
		return run.ID, err
	}

	o.runs.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("status", string(constants.RunStatusCompleted))))
	o.logger.Info("extraction.completed", "request_id", requestID, "run_id", run.ID, "warnings", len(b.warnings))
	return run.ID, nil
}

func (o *Orchestrator) phaseA(ctx context.Context, requestID uuid.UUID) (*entity.ExtractionRun, []entity.Document, error) {
	ctx, span := o.tracer.Start(ctx, "extraction.phase_a")
	defer span.End()

	var (
		run  *entity.ExtractionRun
		docs []entity.Document
	)
	err := o.store.InTx(ctx, func(tx *repository.Repos) error {
		var err error
		docs, err = tx.Documents.ListActive(ctx, requestID)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return common.NewAppError("NO_ACTIVE_DOCUMENTS", "no active documents for request "+requestID.String(), common.ErrNoActiveDocuments)
		}
		if run, err = tx.Runs.Start(ctx, requestID); err != nil {
			return err
		}
		return tx.Requests.SetStatus(ctx, requestID, constants.RequestStatusExtracting)
	})
	if err != nil {
		return nil, nil, err
	}
	return run, docs, nil
}

func (o *Orchestrator) phaseB(ctx context.Context, run *entity.ExtractionRun, docs []entity.Document) (*batch, error) {
	ctx, span := o.tracer.Start(ctx, "extraction.phase_b", trace.WithAttributes(attribute.Int("documents", len(docs))))
	defer span.End()

	prepared, err := o.prepare(ctx, orderDocuments(docs))
	if err != nil {
		return nil, err
	}

	var b *batch
	err = o.store.InTx(ctx, func(tx *repository.Repos) error {
		b = &batch{o: o, repos: tx, requestID: run.RequestID, runID: run.ID}
		for _, p := range prepared {
			if err := b.process(ctx, p); err != nil {
				return fmt.Errorf("ground %s: %w", p.doc.Filename, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	written := 0
	for _, d := range b.manifestDocs {
		written += d.EvidenceWritten
	}
	o.evidence.Add(ctx, int64(written))
	span.SetAttributes(attribute.Int("evidence_written", written), attribute.Int("warnings", len(b.warnings)))
	return b, nil
}

func (o *Orchestrator) phaseC(ctx context.Context, run *entity.ExtractionRun, b *batch) error {
	ctx, span := o.tracer.Start(ctx, "extraction.phase_c")
	defer span.End()

	m := Manifest{
		RequestID:       run.RequestID.String(),
		ExtractionRunID: run.ID.String(),
		StartedAt:       formatTime(run.StartedAt),
		FinishedAt:      formatTime(time.Now()),
		Documents:       b.manifestDocs,
		Warnings:        b.warnings,
	}
	path, sum, err := writeManifest(o.cfg.ManifestDir, run.RequestID, run.ID, m)
	if err != nil {
		return err
	}
	return o.store.InTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Runs.Complete(ctx, run.ID, path, sum); err != nil {
			return err
		}
		return tx.Requests.SetStatus(ctx, run.RequestID, constants.RequestStatusReadyForDecision)
	})
}

// fail records cause on the run. It runs even when ctx was cancelled.
func (o *Orchestrator) fail(ctx context.Context, run *entity.ExtractionRun, cause error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := o.tracer.Start(ctx, "extraction.fail")
	defer span.End()

	o.runs.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("status", string(constants.RunStatusFailed))))
	o.logger.Error("extraction.failed", "request_id", run.RequestID, "run_id", run.ID, "err", cause)
	err := o.store.InTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Runs.Fail(ctx, run.ID, cause.Error()); err != nil {
			return err
		}
		return tx.Requests.SetStatus(ctx, run.RequestID, constants.RequestStatusNeedsInfo)
	})
	if err != nil {
		span.RecordError(err)
		o.logger.Error("extraction.fail.record_failed", "run_id", run.ID, "err", err)
	}
}
