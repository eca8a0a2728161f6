package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/course-grounding/internal/ocr"
)

type OCRAdapter struct {
	e      *ocr.Extractor
	logger *slog.Logger
}

func NewOCRAdapter(e *ocr.Extractor, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, logger: logger}
}

func (a *OCRAdapter) Acquire(ctx context.Context, path, ocrOutputDir string, preferOCR bool) (PagesResult, error) {
	r, err := a.e.EnsureSearchableText(ctx, path, ocrOutputDir, preferOCR)
	if err != nil {
		a.logger.Error("text acquisition failed", "path", path, "error", err)
		return PagesResult{}, err
	}
	a.logger.Debug("text acquired", "path", path, "pages", len(r.Pages), "used_ocr", r.UsedOCR, "duration_ms", r.Duration.Milliseconds())
	return PagesResult{
		Pages:           r.Pages,
		UsedOCR:         r.UsedOCR,
		OCRArtifactPath: r.OCRArtifactPath,
		Warning:         r.Warning,
		Duration:        r.Duration,
	}, nil
}
