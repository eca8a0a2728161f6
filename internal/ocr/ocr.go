package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/course-grounding/constants"
)

// DefaultMinCharsPerPage is the threshold below which a page counts as having no text.
const DefaultMinCharsPerPage = 40

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	OCRMyPDF  string // binary name or absolute path; if empty -> "ocrmypdf"

	OCRTimeout      time.Duration // caller-side bound on one OCR invocation, default 5m
	MinCharsPerPage int           // default 40
}

// Result is the outcome of EnsureSearchableText.
type Result struct {
	Pages           []string
	UsedOCR         bool
	OCRArtifactPath string // set only when OCR produced a searchable copy
	Warning         string // non-fatal; OCR was needed but unavailable or failed
	Duration        time.Duration
}

// PageCounter reports how many pages a PDF has.
type PageCounter func(path string) (int, error)

type Extractor struct {
	cfg       Config
	runner    Runner
	pageCount PageCounter
	logger    *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the external command runner.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithPageCounter replaces the PDF page counter.
func WithPageCounter(pc PageCounter) Option {
	return func(e *Extractor) {
		if pc != nil {
			e.pageCount = pc
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.OCRMyPDF == "" {
		cfg.OCRMyPDF = "ocrmypdf"
	}
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = 5 * time.Minute
	}
	if cfg.MinCharsPerPage <= 0 {
		cfg.MinCharsPerPage = DefaultMinCharsPerPage
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, pageCount: api.PageCountFile, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExtractPagesText returns one normalized string per page, "" for pages without text.
// The input file is never modified.
func (e *Extractor) ExtractPagesText(ctx context.Context, path string) ([]string, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("extracting page text", "path", path, "ext", ext)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		return e.pdfPages(ctx, path)
	case constants.TEXT:
		return textPages(path)
	default:
		e.logger.Error("unsupported extension", "extension", ext, "path", path)
		return nil, fmt.Errorf("unsupported extension: %q", ext)
	}
}

// EnsureSearchableText extracts page text and, when the document looks image-only and
// preferOCR is set, produces a searchable copy under outputDir and re-extracts from it.
// OCR being unavailable or failing is reported in Result.Warning, never as an error.
func (e *Extractor) EnsureSearchableText(ctx context.Context, path, outputDir string, preferOCR bool) (Result, error) {
	start := time.Now()
	pages, err := e.ExtractPagesText(ctx, path)
	if err != nil {
		return Result{}, err
	}
	res := Result{Pages: pages}

	isPDF := constants.MapExtToFormat(filepath.Ext(path)) == constants.PDF
	if !isPDF || !preferOCR || !LooksImageOnly(pages, e.cfg.MinCharsPerPage) {
		res.Duration = time.Since(start)
		return res, nil
	}

	out := filepath.Join(outputDir, OCRArtifactName(path))
	e.logger.Info("document looks image-only, running ocr", "path", path, "output", out)
	if err := e.OCR(ctx, path, out); err != nil {
		res.Warning = fmt.Sprintf("OCR required but unavailable/failed for %s: %v", path, err)
		e.logger.Warn("ocr unavailable, continuing without it", "path", path, "error", err)
		res.Duration = time.Since(start)
		return res, nil
	}

	ocrPages, err := e.ExtractPagesText(ctx, out)
	if err != nil {
		res.Warning = fmt.Sprintf("OCR output unreadable for %s: %v", path, err)
		e.logger.Warn("ocr output unreadable", "path", out, "error", err)
		res.Duration = time.Since(start)
		return res, nil
	}
	res.Pages = ocrPages
	res.UsedOCR = true
	res.OCRArtifactPath = out
	res.Duration = time.Since(start)
	return res, nil
}
