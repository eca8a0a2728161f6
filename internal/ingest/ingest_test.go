package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/repository"
)

func newTestIngestor(t *testing.T) (*FSIngestor, *repository.Store) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	drv, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = drv.Close() })
	require.NoError(t, repository.Migrate(ctx, drv, logger))
	store := repository.NewStore(drv, logger)
	return NewFSIngestor(store, logger), store
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestIngestPath_CreatesRequestAndDocument(t *testing.T) {
	ing, store := newTestIngestor(t)
	ctx := context.Background()
	reqID := uuid.New()
	path := writeFile(t, t.TempDir(), "cs2150_syllabus.txt", "CS 2150 Program and Data Representation")

	res, err := ing.IngestPath(ctx, reqID, path)
	require.NoError(t, err)
	assert.False(t, res.Deduplicated)
	assert.Equal(t, "cs2150_syllabus.txt", res.Filename)
	assert.Len(t, res.HashHex, 64)

	req, err := store.Repos().Requests.Get(ctx, reqID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusUploaded, req.Status)

	docs, err := store.Repos().Documents.ListActive(ctx, reqID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, path, docs[0].StorageURI)
	assert.Equal(t, "text/plain", docs[0].ContentType)
	assert.EqualValues(t, len("CS 2150 Program and Data Representation"), docs[0].SizeBytes)
}

func TestIngestPath_DeduplicatesAndReplaces(t *testing.T) {
	ing, store := newTestIngestor(t)
	ctx := context.Background()
	reqID := uuid.New()
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.txt", "v1")

	first, err := ing.IngestPath(ctx, reqID, path)
	require.NoError(t, err)
	again, err := ing.IngestPath(ctx, reqID, path)
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)
	assert.Equal(t, first.DocID, again.DocID)

	writeFile(t, dir, "catalog.txt", "v2")
	replaced, err := ing.IngestPath(ctx, reqID, path)
	require.NoError(t, err)
	assert.False(t, replaced.Deduplicated)
	assert.EqualValues(t, 1, replaced.Replaced)

	docs, err := store.Repos().Documents.ListActive(ctx, reqID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, replaced.DocID, docs[0].ID.String())

	// the old row is kept, inactive
	old, err := store.Repos().Documents.GetByID(ctx, uuid.MustParse(first.DocID))
	require.NoError(t, err)
	assert.False(t, old.IsActive)
}

func TestIngestPath_RejectsUnsupportedExtension(t *testing.T) {
	ing, _ := newTestIngestor(t)
	path := writeFile(t, t.TempDir(), "scan.png", "x")

	_, err := ing.IngestPath(context.Background(), uuid.New(), path)
	require.Error(t, err)
	assert.True(t, common.IsInvalidInput(err))
}

func TestIngestDirectory(t *testing.T) {
	ing, store := newTestIngestor(t)
	ctx := context.Background()
	reqID := uuid.New()
	root := t.TempDir()
	writeFile(t, root, "a_syllabus.txt", "a")
	writeFile(t, root, "nested/catalog.pdf", "%PDF-1.4 b")
	writeFile(t, root, "notes.docx", "c")
	writeFile(t, root, ".hidden/d.txt", "d")
	writeFile(t, root, "dup.txt", "a")

	results, stats, err := ing.IngestDirectory(ctx, reqID, root, true)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 3, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Deduplicated)
	assert.Zero(t, stats.Failed)
	assert.Len(t, results, 3)

	docs, err := store.Repos().Documents.ListActive(ctx, reqID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, _, err = ing.IngestDirectory(ctx, reqID, " ", true)
	require.Error(t, err)
	assert.True(t, common.IsInvalidInput(err))

	_, _, err = ing.IngestDirectory(ctx, reqID, filepath.Join(root, "missing"), true)
	assert.Error(t, err)
}

func TestIngestDirectory_CancelledStopsRegistering(t *testing.T) {
	ing, store := newTestIngestor(t)
	reqID := uuid.New()
	root := t.TempDir()
	writeFile(t, root, "syllabus.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, stats, err := ing.IngestDirectory(ctx, reqID, root, true)
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, stats.Matched)
	assert.Zero(t, stats.Succeeded)

	docs, err := store.Repos().Documents.ListActive(context.Background(), reqID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStartWatcher_EmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	existing := writeFile(t, root, "existing.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, nil, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, existing, p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit existing file")
	}

	created := writeFile(t, root, "new_syllabus.pdf", "%PDF")
	writeFile(t, root, "ignored.docx", "x")
	select {
	case p := <-events:
		assert.Equal(t, created, p)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not emit created file")
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), nil, WatchConfig{})
	assert.Error(t, err)
}
