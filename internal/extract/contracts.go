package extract

import (
	"context"
	"time"
)

// TextSource is Stage 1: document -> per-page text, with OCR fallback for scans.
type TextSource interface {
	Acquire(ctx context.Context, path, ocrOutputDir string, preferOCR bool) (PagesResult, error)
}

type PagesResult struct {
	Pages           []string // one entry per page, "" for pages without text
	UsedOCR         bool
	OCRArtifactPath string
	Warning         string // non-fatal acquisition problem, e.g. OCR unavailable
	Duration        time.Duration
}
