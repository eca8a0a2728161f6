package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/internal/payload"
)

// Manifest summarizes one extraction run. It is written as indented JSON next to the
// other run artifacts and its SHA-256 is recorded on the run row.
type Manifest struct {
	RequestID       string             `json:"request_id"`
	ExtractionRunID string             `json:"extraction_run_id"`
	StartedAt       string             `json:"started_at"`
	FinishedAt      string             `json:"finished_at"`
	Documents       []ManifestDocument `json:"documents"`
	Warnings        []string           `json:"warnings"`
}

type ManifestDocument struct {
	DocID           string  `json:"doc_id"`
	Filename        string  `json:"filename"`
	StorageURI      string  `json:"storage_uri"`
	DocType         string  `json:"doc_type"`
	PageCount       int     `json:"page_count"`
	UsedOCR         bool    `json:"used_ocr"`
	OCROutputPDF    *string `json:"ocr_output_pdf"`
	ChunksWritten   int     `json:"chunks_written"`
	EvidenceWritten int     `json:"evidence_written"`
}

// ManifestFilename is the file name of a run's manifest inside the manifest directory.
func ManifestFilename(requestID, runID uuid.UUID) string {
	return fmt.Sprintf("extraction_manifest_%s_%s.json", requestID, runID)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// writeManifest validates m, writes it under dir and returns its path and hex SHA-256.
func writeManifest(dir string, requestID, runID uuid.UUID, m Manifest) (string, string, error) {
	if m.Documents == nil {
		m.Documents = []ManifestDocument{}
	}
	if m.Warnings == nil {
		m.Warnings = []string{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := payload.Manifest.Validate(data); err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create manifest dir: %w", err)
	}
	path := filepath.Join(dir, ManifestFilename(requestID, runID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return path, hex.EncodeToString(sum[:]), nil
}
