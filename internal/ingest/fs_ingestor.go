package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
	"github.com/joseph-ayodele/course-grounding/internal/repository"
)

// FSIngestor registers files from the local filesystem. The stored storage_uri is the
// absolute path; files are not copied.
type FSIngestor struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewFSIngestor(store *repository.Store, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{store: store, logger: logger}
}

// IngestPath registers path as a document of requestID, creating the request when missing.
// Identical content already active on the request is reported as deduplicated. Otherwise
// active documents with the same filename are deactivated and a new row is created.
func (i *FSIngestor) IngestPath(ctx context.Context, requestID uuid.UUID, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return out, fmt.Errorf("abs path: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return out, common.NewAppError("UNSUPPORTED_EXTENSION", fmt.Sprintf("unsupported or missing extension: %q", ext), common.ErrInvalidInput)
	}

	hashHex, size, err := hashFile(abs)
	if err != nil {
		i.logger.Error("hash error", "path", abs, "error", err)
		return out, err
	}
	filename := filepath.Base(abs)
	out = IngestionResult{SourcePath: abs, Filename: filename, HashHex: hashHex, SizeBytes: size}

	err = i.store.InTx(ctx, func(tx *repository.Repos) error {
		if _, err := tx.Requests.Ensure(ctx, requestID, constants.RequestStatusUploaded); err != nil {
			return err
		}
		existing, err := tx.Documents.GetActiveByHash(ctx, requestID, hashHex)
		switch {
		case err == nil:
			out.DocID = existing.ID.String()
			out.Deduplicated = true
			out.CreatedAt = existing.CreatedAt
			return nil
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		if out.Replaced, err = tx.Documents.DeactivateByFilename(ctx, requestID, filename); err != nil {
			return err
		}
		doc, err := tx.Documents.Create(ctx, entity.Document{
			RequestID:   requestID,
			Filename:    filename,
			ContentType: constants.ContentType(ext),
			StorageURI:  abs,
			ContentHash: hashHex,
			SizeBytes:   size,
			IsActive:    true,
		})
		if err != nil {
			return err
		}
		out.DocID = doc.ID.String()
		out.CreatedAt = doc.CreatedAt
		return nil
	})
	if err != nil {
		return IngestionResult{SourcePath: abs}, err
	}
	i.logger.Info("document ingested", "request_id", requestID, "doc_id", out.DocID, "filename", filename,
		"deduplicated", out.Deduplicated, "replaced", out.Replaced)
	return out, nil
}
