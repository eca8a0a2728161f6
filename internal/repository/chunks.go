package repository

import (
	"context"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/internal/entity"
)

type ChunkRepository interface {
	// Upsert stores the chunk unless a row with the same chunk_id exists. The id is
	// derived from content when empty.
	Upsert(ctx context.Context, ch entity.Chunk) (id string, inserted bool, err error)
	CountByRun(ctx context.Context, runID uuid.UUID) (int, error)
	ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.Chunk, error)
}

type chunkRepo struct{ base }

func NewChunkRepository(q dialect.ExecQuerier, dialectName string, logger *slog.Logger) ChunkRepository {
	return &chunkRepo{newBase(q, dialectName, logger)}
}

func (r *chunkRepo) Upsert(ctx context.Context, ch entity.Chunk) (string, bool, error) {
	if ch.ID == "" {
		ch.ID = entity.ChunkID(ch.DocID, ch.RunID, ch.PageNum, ch.SpanStart, ch.SpanEnd, ch.FullText)
	}
	ins := r.b.Insert(TableCitationChunks).
		Columns("chunk_id", "doc_id", "run_id", "page_num", "span_start", "span_end", "snippet_text", "full_text", "created_at").
		Values(ch.ID, ch.DocID, ch.RunID, ch.PageNum, ch.SpanStart, ch.SpanEnd, ch.SnippetText, ch.FullText, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("chunk_id"), entsql.DoNothing())
	res, err := r.exec(ctx, ins)
	if err != nil {
		r.logger.Error("failed to upsert chunk", "chunk_id", ch.ID, "doc_id", ch.DocID, "page_num", ch.PageNum, "error", err)
		return "", false, dbErr("upsert chunk", err)
	}
	n, _ := res.RowsAffected()
	return ch.ID, n > 0, nil
}

func (r *chunkRepo) CountByRun(ctx context.Context, runID uuid.UUID) (int, error) {
	n, err := r.count(ctx, r.b.Select(entsql.Count("*")).
		From(r.b.Table(TableCitationChunks)).
		Where(entsql.EQ("run_id", runID)))
	if err != nil {
		return 0, dbErr("count chunks", err)
	}
	return n, nil
}

func (r *chunkRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.Chunk, error) {
	sel := r.b.Select("chunk_id", "doc_id", "run_id", "page_num", "span_start", "span_end", "snippet_text", "full_text").
		From(r.b.Table(TableCitationChunks)).
		Where(entsql.EQ("run_id", runID)).
		OrderBy("doc_id", "page_num", "span_start")
	var out []entity.Chunk
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var c entity.Chunk
		if err := rows.Scan(&c.ID, &c.DocID, &c.RunID, &c.PageNum, &c.SpanStart, &c.SpanEnd, &c.SnippetText, &c.FullText); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list chunks", "run_id", runID, "error", err)
		return nil, dbErr("list chunks", err)
	}
	return out, nil
}
