// Package app wires configuration, storage and the extraction pipeline for the binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/course-grounding/internal/audit"
	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/export"
	"github.com/joseph-ayodele/course-grounding/internal/extract"
	"github.com/joseph-ayodele/course-grounding/internal/ingest"
	"github.com/joseph-ayodele/course-grounding/internal/ocr"
	"github.com/joseph-ayodele/course-grounding/internal/pipeline"
	"github.com/joseph-ayodele/course-grounding/internal/repository"
	"github.com/joseph-ayodele/course-grounding/internal/telemetry"
)

type App struct {
	Log   *slog.Logger
	Cfg   *common.Config
	DB    *repository.DB
	Store *repository.Store

	Orchestrator *pipeline.Orchestrator
	Ingestor     *ingest.FSIngestor
	Auditor      *audit.Auditor
	Exporter     *export.Service

	shutdownTracing func(context.Context) error
}

// New loads configuration, connects to and migrates the database, and builds every service.
// Logs go to logOut as JSON.
func New(ctx context.Context, logOut io.Writer) (*App, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(ctx, cfg, common.NewLogger(logOut, cfg.LogLevel))
}

func NewWithConfig(ctx context.Context, cfg *common.Config, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := repository.Connect(ctx, dbConfig(cfg.Database), log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.HealthCheck(ctx, 3*time.Second, log); err != nil {
		db.Close(log)
		return nil, fmt.Errorf("database health: %w", err)
	}
	if err := repository.Migrate(ctx, db.Driver, log); err != nil {
		db.Close(log)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store := repository.NewStore(db.Driver, log)
	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:       cfg.OCR.PdftotextBin,
		OCRMyPDF:        cfg.OCR.OCRMyPDFBin,
		OCRTimeout:      cfg.OCR.Timeout,
		MinCharsPerPage: cfg.OCR.MinCharsPerPage,
	}, log)

	return &App{
		Log:             log,
		Cfg:             cfg,
		DB:              db,
		Store:           store,
		Orchestrator:    pipeline.NewOrchestrator(log, pipeline.ConfigFrom(cfg), store, extract.NewOCRAdapter(extractor, log)),
		Ingestor:        ingest.NewFSIngestor(store, log),
		Auditor:         audit.NewAuditor(store.Repos(), log),
		Exporter:        export.NewService(store.Repos(), log),
		shutdownTracing: telemetry.Init(ctx, log, cfg.Telemetry, os.Stderr),
	}, nil
}

func dbConfig(c common.DatabaseConfig) repository.Config {
	return repository.Config{
		Driver:           c.Driver,
		DSN:              c.DSN,
		SQLitePath:       c.SQLitePath,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// Close flushes tracing and releases the database.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownTracing(ctx); err != nil {
			a.Log.Warn("tracing shutdown failed", "error", err)
		}
		cancel()
	}
	a.DB.Close(a.Log)
}
