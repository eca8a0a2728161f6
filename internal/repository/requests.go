package repository

import (
	"context"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
)

type RequestRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Request, error)
	// Ensure creates the request with status if it does not exist yet.
	Ensure(ctx context.Context, id uuid.UUID, status constants.RequestStatus) (created bool, err error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.RequestStatus) error
	ListByStatus(ctx context.Context, status constants.RequestStatus, limit int) ([]uuid.UUID, error)
}

type requestRepo struct{ base }

func NewRequestRepository(q dialect.ExecQuerier, dialectName string, logger *slog.Logger) RequestRepository {
	return &requestRepo{newBase(q, dialectName, logger)}
}

func (r *requestRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Request, error) {
	sel := r.b.Select("request_id", "status", "created_at", "updated_at").
		From(r.b.Table(TableRequests)).
		Where(entsql.EQ("request_id", id))
	var out *entity.Request
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var req entity.Request
		var status string
		if err := rows.Scan(&req.ID, &status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return err
		}
		req.Status = constants.RequestStatus(status)
		out = &req
		return nil
	})
	if err != nil {
		r.logger.Error("failed to get request", "request_id", id, "error", err)
		return nil, dbErr("get request", err)
	}
	if out == nil {
		return nil, common.NewAppError("REQUEST_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return out, nil
}

func (r *requestRepo) Ensure(ctx context.Context, id uuid.UUID, status constants.RequestStatus) (bool, error) {
	now := time.Now().UTC()
	ins := r.b.Insert(TableRequests).
		Columns("request_id", "status", "created_at", "updated_at").
		Values(id, string(status), now, now).
		OnConflict(entsql.ConflictColumns("request_id"), entsql.DoNothing())
	res, err := r.exec(ctx, ins)
	if err != nil {
		r.logger.Error("failed to ensure request", "request_id", id, "error", err)
		return false, dbErr("ensure request", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.logger.Info("request created", "request_id", id, "status", status)
	}
	return n > 0, nil
}

func (r *requestRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.RequestStatus) error {
	upd := r.b.Update(TableRequests).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("request_id", id))
	res, err := r.exec(ctx, upd)
	if err != nil {
		r.logger.Error("failed to set request status", "request_id", id, "status", status, "error", err)
		return dbErr("set request status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("REQUEST_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	r.logger.Debug("request status updated", "request_id", id, "status", status)
	return nil
}

func (r *requestRepo) ListByStatus(ctx context.Context, status constants.RequestStatus, limit int) ([]uuid.UUID, error) {
	sel := r.b.Select("request_id").
		From(r.b.Table(TableRequests)).
		Where(entsql.EQ("status", string(status))).
		OrderBy("updated_at", "request_id")
	if limit > 0 {
		sel.Limit(limit)
	}
	var ids []uuid.UUID
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list requests", "status", status, "error", err)
		return nil, dbErr("list requests", err)
	}
	return ids, nil
}
