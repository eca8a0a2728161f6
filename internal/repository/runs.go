package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
)

// RunRepository persists extraction runs. Status only moves running -> completed or
// running -> failed; terminal rows are never updated again.
type RunRepository interface {
	Start(ctx context.Context, requestID uuid.UUID) (*entity.ExtractionRun, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionRun, error)
	LatestForRequest(ctx context.Context, requestID uuid.UUID) (*entity.ExtractionRun, error)
	Complete(ctx context.Context, id uuid.UUID, manifestURI, manifestSHA256 string) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
}

type runRepo struct{ base }

func NewRunRepository(q dialect.ExecQuerier, dialectName string, logger *slog.Logger) RunRepository {
	return &runRepo{newBase(q, dialectName, logger)}
}

var runColumns = []string{
	"run_id", "request_id", "status", "started_at", "finished_at",
	"error_message", "manifest_uri", "manifest_sha256",
}

func (r *runRepo) Start(ctx context.Context, requestID uuid.UUID) (*entity.ExtractionRun, error) {
	run := entity.ExtractionRun{
		ID:        uuid.New(),
		RequestID: requestID,
		Status:    constants.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	ins := r.b.Insert(TableExtractionRuns).
		Columns("run_id", "request_id", "status", "started_at").
		Values(run.ID, run.RequestID, string(run.Status), run.StartedAt)
	if _, err := r.exec(ctx, ins); err != nil {
		r.logger.Error("extraction_run start failed", "request_id", requestID, "error", err)
		return nil, dbErr("start run", err)
	}
	r.logger.Info("extraction_run started", "run_id", run.ID, "request_id", requestID)
	return &run, nil
}

func (r *runRepo) one(ctx context.Context, sel *entsql.Selector) (*entity.ExtractionRun, error) {
	var out *entity.ExtractionRun
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			run      entity.ExtractionRun
			status   string
			finished sql.NullTime
			errMsg   sql.NullString
			uri      sql.NullString
			sha      sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.RequestID, &status, &run.StartedAt, &finished, &errMsg, &uri, &sha); err != nil {
			return err
		}
		run.Status = constants.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		run.ErrorMessage = strPtr(errMsg)
		run.ManifestURI = strPtr(uri)
		run.ManifestSHA256 = strPtr(sha)
		out = &run
		return nil
	})
	if err != nil {
		return nil, dbErr("get run", err)
	}
	if out == nil {
		return nil, common.NewAppError("RUN_NOT_FOUND", "extraction run", common.ErrNotFound)
	}
	return out, nil
}

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionRun, error) {
	return r.one(ctx, r.b.Select(runColumns...).
		From(r.b.Table(TableExtractionRuns)).
		Where(entsql.EQ("run_id", id)))
}

func (r *runRepo) LatestForRequest(ctx context.Context, requestID uuid.UUID) (*entity.ExtractionRun, error) {
	return r.one(ctx, r.b.Select(runColumns...).
		From(r.b.Table(TableExtractionRuns)).
		Where(entsql.EQ("request_id", requestID)).
		OrderBy(entsql.Desc("started_at")).
		Limit(1))
}

// finish applies a terminal transition, guarded so only a running row changes.
func (r *runRepo) finish(ctx context.Context, id uuid.UUID, status constants.RunStatus, set func(*entsql.UpdateBuilder)) error {
	upd := r.b.Update(TableExtractionRuns).
		Set("status", string(status)).
		Set("finished_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("run_id", id),
			entsql.EQ("status", string(constants.RunStatusRunning)),
		))
	set(upd)
	res, err := r.exec(ctx, upd)
	if err != nil {
		r.logger.Error("extraction_run finish failed", "run_id", id, "status", status, "error", err)
		return dbErr("finish run", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		r.logger.Warn("extraction_run not running, refusing transition", "run_id", id, "status", status)
		return common.NewAppError("RUN_NOT_RUNNING", id.String(), common.ErrRunNotRunning)
	}
	return nil
}

func (r *runRepo) Complete(ctx context.Context, id uuid.UUID, manifestURI, manifestSHA256 string) error {
	err := r.finish(ctx, id, constants.RunStatusCompleted, func(u *entsql.UpdateBuilder) {
		u.Set("manifest_uri", manifestURI).Set("manifest_sha256", manifestSHA256)
	})
	if err == nil {
		r.logger.Info("extraction_run finished (completed)", "run_id", id, "manifest_uri", manifestURI)
	}
	return err
}

func (r *runRepo) Fail(ctx context.Context, id uuid.UUID, message string) error {
	err := r.finish(ctx, id, constants.RunStatusFailed, func(u *entsql.UpdateBuilder) {
		u.Set("error_message", message)
	})
	if err == nil {
		r.logger.Warn("extraction_run finished (failed)", "run_id", id, "error", message)
	}
	return err
}
