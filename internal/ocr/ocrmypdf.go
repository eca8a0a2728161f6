package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrOCRUnavailable means the OCR tool is not installed or not on PATH.
var ErrOCRUnavailable = errors.New("ocrmypdf is not installed or not on PATH")

// OCRArtifactName is the file name of the searchable copy produced for path.
func OCRArtifactName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return "ocr_" + stem + ".pdf"
}

// OCR writes a searchable copy of inputPath to outputPath, bounded by the configured timeout.
func (e *Extractor) OCR(ctx context.Context, inputPath, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create ocr output dir: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OCRTimeout)
	defer cancel()

	// ocrmypdf --force-ocr <in.pdf> <out.pdf>
	_, errb, err := e.runner.Run(ctx, e.logger.With("path", inputPath), e.cfg.OCRMyPDF, "--force-ocr", inputPath, outputPath)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ErrOCRUnavailable
		}
		if ctx.Err() != nil {
			return fmt.Errorf("ocrmypdf timed out after %s: %w", e.cfg.OCRTimeout, ctx.Err())
		}
		return fmt.Errorf("ocrmypdf failed: %w: %s", err, truncate(string(errb), 500))
	}
	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("ocrmypdf produced no output: %w", err)
	}
	return nil
}
