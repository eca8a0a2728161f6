package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/constants"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	SkipHidden  bool
	Debounce    time.Duration // coalesce rapid create/write bursts
}

// StartWatcher emits paths of allowed files created or written under cfg.Roots. Both
// channels are closed when ctx is done.
func StartWatcher(ctx context.Context, logger *slog.Logger, cfg WatchConfig) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	pending := map[string]struct{}{}
	include := func(path string) bool {
		if cfg.SkipHidden && IsHidden(path) {
			return false
		}
		return AllowedExt(constants.NormalizeExt(filepath.Ext(path)))
	}
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if cfg.SkipHidden && path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && include(path) {
				pending[path] = struct{}{}
			}
			return nil
		})
		if err != nil {
			logger.Error("failed to add root directory", "root", root, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watcher close failed", "error", err)
			}
		}()

		flush := func() bool {
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				select {
				case evCh <- p:
					delete(pending, p)
				case <-ctx.Done():
					return false
				}
			}
			return true
		}
		if !flush() {
			return
		}

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if !include(e.Name) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					debounce = time.After(cfg.Debounce)
				} else if !flush() {
					return
				}
			case <-debounce:
				debounce = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// Watch registers every file that appears under cfg.Roots as a document of requestID
// until ctx is done.
func (i *FSIngestor) Watch(ctx context.Context, requestID uuid.UUID, cfg WatchConfig, onResult func(IngestionResult, error)) error {
	events, errs, err := StartWatcher(ctx, i.logger, cfg)
	if err != nil {
		return err
	}
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			res, err := i.IngestPath(ctx, requestID, path)
			if err != nil {
				i.logger.Warn("watch ingest failed", "path", path, "error", err)
			}
			if onResult != nil {
				onResult(res, err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			i.logger.Warn("watcher reported error", "error", err)
		}
	}
}
