package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/internal/common"
)

// IngestDirectory registers every syllabus or catalog file under root with requestID, in
// lexical path order. A file that fails to register is reported in its result and counted
// in stats.Failed; only cancellation or an unreadable root ends the call early.
func (i *FSIngestor) IngestDirectory(ctx context.Context, requestID uuid.UUID, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewAppError("ROOT_REQUIRED", "root_path is required", common.ErrInvalidInput)
	}

	paths, results, stats, err := courseFiles(root, skipHidden)
	if err != nil {
		return nil, stats, err
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}
		r, err := i.IngestPath(ctx, requestID, path)
		if err != nil {
			r = IngestionResult{SourcePath: path, Err: err.Error()}
			stats.Failed++
		} else {
			stats.Succeeded++
			if r.Deduplicated {
				stats.Deduplicated++
			}
		}
		results = append(results, r)
	}
	i.logger.Info("directory ingested", "request_id", requestID, "root", root,
		"matched", stats.Matched, "succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated, "failed", stats.Failed)
	return results, stats, nil
}

// courseFiles lists the files under root with an accepted document extension. Entries that
// cannot be read become failed results rather than aborting the listing.
func courseFiles(root string, skipHidden bool) ([]string, []IngestionResult, DirStats, error) {
	var (
		paths  []string
		failed []IngestionResult
		stats  DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		stats.Scanned++
		switch {
		case err != nil && path == root:
			return err
		case err != nil:
			failed = append(failed, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		case skipHidden && path != root && IsHidden(path):
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		case d.IsDir() || !AllowedExt(filepath.Ext(path)):
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, nil, stats, fmt.Errorf("list %s: %w", root, err)
	}
	return paths, failed, stats, nil
}
