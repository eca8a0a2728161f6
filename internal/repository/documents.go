package repository

import (
	"context"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc entity.Document) (*entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetActiveByHash(ctx context.Context, requestID uuid.UUID, hash string) (*entity.Document, error)
	// DeactivateByFilename flips is_active off for the request's active documents with
	// this filename. Rows are never deleted.
	DeactivateByFilename(ctx context.Context, requestID uuid.UUID, filename string) (int64, error)
	// ListActive returns the request's active documents in upload order.
	ListActive(ctx context.Context, requestID uuid.UUID) ([]entity.Document, error)
}

type documentRepo struct{ base }

func NewDocumentRepository(q dialect.ExecQuerier, dialectName string, logger *slog.Logger) DocumentRepository {
	return &documentRepo{newBase(q, dialectName, logger)}
}

var documentColumns = []string{
	"doc_id", "request_id", "filename", "content_type", "storage_uri",
	"content_hash", "size_bytes", "is_active", "created_at",
}

func scanDocument(rows *entsql.Rows) (entity.Document, error) {
	var d entity.Document
	err := rows.Scan(&d.ID, &d.RequestID, &d.Filename, &d.ContentType, &d.StorageURI,
		&d.ContentHash, &d.SizeBytes, &d.IsActive, &d.CreatedAt)
	return d, err
}

func (r *documentRepo) Create(ctx context.Context, doc entity.Document) (*entity.Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	ins := r.b.Insert(TableDocuments).
		Columns(documentColumns...).
		Values(doc.ID, doc.RequestID, doc.Filename, doc.ContentType, doc.StorageURI,
			doc.ContentHash, doc.SizeBytes, doc.IsActive, doc.CreatedAt)
	if _, err := r.exec(ctx, ins); err != nil {
		r.logger.Error("failed to create document", "request_id", doc.RequestID, "filename", doc.Filename, "error", err)
		return nil, dbErr("create document", err)
	}
	r.logger.Info("document created", "doc_id", doc.ID, "request_id", doc.RequestID, "filename", doc.Filename)
	return &doc, nil
}

func (r *documentRepo) one(ctx context.Context, op string, where *entsql.Predicate) (*entity.Document, error) {
	sel := r.b.Select(documentColumns...).
		From(r.b.Table(TableDocuments)).
		Where(where).
		Limit(1)
	var out *entity.Document
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		d, err := scanDocument(rows)
		if err != nil {
			return err
		}
		out = &d
		return nil
	})
	if err != nil {
		r.logger.Error("failed to "+op, "error", err)
		return nil, dbErr(op, err)
	}
	if out == nil {
		return nil, common.NewAppError("DOCUMENT_NOT_FOUND", op, common.ErrNotFound)
	}
	return out, nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return r.one(ctx, "get document", entsql.EQ("doc_id", id))
}

func (r *documentRepo) GetActiveByHash(ctx context.Context, requestID uuid.UUID, hash string) (*entity.Document, error) {
	return r.one(ctx, "get document by hash", entsql.And(
		entsql.EQ("request_id", requestID),
		entsql.EQ("content_hash", hash),
		entsql.EQ("is_active", true),
	))
}

func (r *documentRepo) DeactivateByFilename(ctx context.Context, requestID uuid.UUID, filename string) (int64, error) {
	upd := r.b.Update(TableDocuments).
		Set("is_active", false).
		Where(entsql.And(
			entsql.EQ("request_id", requestID),
			entsql.EQ("filename", filename),
			entsql.EQ("is_active", true),
		))
	res, err := r.exec(ctx, upd)
	if err != nil {
		r.logger.Error("failed to deactivate documents", "request_id", requestID, "filename", filename, "error", err)
		return 0, dbErr("deactivate documents", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.logger.Info("documents deactivated", "request_id", requestID, "filename", filename, "count", n)
	}
	return n, nil
}

func (r *documentRepo) ListActive(ctx context.Context, requestID uuid.UUID) ([]entity.Document, error) {
	sel := r.b.Select(documentColumns...).
		From(r.b.Table(TableDocuments)).
		Where(entsql.And(entsql.EQ("request_id", requestID), entsql.EQ("is_active", true))).
		OrderBy("created_at", "doc_id")
	var docs []entity.Document
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		d, err := scanDocument(rows)
		if err != nil {
			return err
		}
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list active documents", "request_id", requestID, "error", err)
		return nil, dbErr("list active documents", err)
	}
	return docs, nil
}
