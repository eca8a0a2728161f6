package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
	"github.com/joseph-ayodele/course-grounding/internal/repository"
)

func TestExportRunXLSX(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	drv, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = drv.Close() })
	require.NoError(t, repository.Migrate(ctx, drv, logger))
	r := repository.NewStore(drv, logger).Repos()

	reqID := uuid.New()
	_, err = r.Requests.Ensure(ctx, reqID, constants.RequestStatusUploaded)
	require.NoError(t, err)
	doc, err := r.Documents.Create(ctx, entity.Document{RequestID: reqID, Filename: "syllabus.txt",
		ContentType: "text/plain", StorageURI: "/tmp/syllabus.txt", ContentHash: "h", IsActive: true})
	require.NoError(t, err)
	run, err := r.Runs.Start(ctx, reqID)
	require.NoError(t, err)

	var ids []string
	for page := 1; page <= 2; page++ {
		id, _, err := r.Chunks.Upsert(ctx, entity.Chunk{DocID: doc.ID, RunID: run.ID, PageNum: page,
			SpanStart: 0, SpanEnd: 7, SnippetText: "CS 2150", FullText: "CS 2150"})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	code := "CS 2150"
	_, err = r.Evidence.InsertGrounded(ctx, entity.GroundedEvidence{RequestID: reqID, RunID: run.ID,
		FactType: constants.FactTypeSyllabusCourse, FactKey: constants.FactKeyCourseCode, FactValue: &code}, ids)
	require.NoError(t, err)
	note := "Missing title in syllabus"
	_, err = r.Evidence.InsertGrounded(ctx, entity.GroundedEvidence{RequestID: reqID, RunID: run.ID,
		FactType: constants.FactTypeSyllabusCourse, FactKey: constants.FactKeyTitle, Unknown: true, Notes: &note}, ids[1:])
	require.NoError(t, err)

	data, err := NewService(r, logger).ExportRunXLSX(ctx, run.ID)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(evidenceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Fact Type", rows[0][0])

	byKey := map[string][]string{}
	for _, row := range rows[1:] {
		byKey[row[1]] = row
	}
	assert.Equal(t, "CS 2150", byKey["course_code"][2])
	assert.Equal(t, "1, 2", byKey["course_code"][6])
	assert.Equal(t, "TRUE", byKey["title"][3])
	assert.Equal(t, note, byKey["title"][4])
	assert.Equal(t, "2", byKey["title"][6])

	chunkRows, err := f.GetRows(chunksSheet)
	require.NoError(t, err)
	assert.Len(t, chunkRows, 3)

	_, err = NewService(r, logger).ExportRunXLSX(ctx, uuid.New())
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "é…", truncate("éééé", 2))
}
