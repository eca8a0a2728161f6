package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
)

type EvidenceRepository interface {
	// InsertGrounded writes the evidence row and its citations. It refuses, before writing
	// anything, when chunkIDs holds no usable id.
	InsertGrounded(ctx context.Context, ev entity.GroundedEvidence, chunkIDs []string) (*entity.GroundedEvidence, error)
	ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.GroundedEvidence, error)
	// CitationsByRun maps evidence ids to their cited chunk ids.
	CitationsByRun(ctx context.Context, runID uuid.UUID) (map[uuid.UUID][]string, error)
	Counts(ctx context.Context, runID uuid.UUID) (total, unknown int, err error)
	// Uncited lists evidence rows of the run that have no citation.
	Uncited(ctx context.Context, runID uuid.UUID) ([]entity.GroundedEvidence, error)
}

type evidenceRepo struct{ base }

func NewEvidenceRepository(q dialect.ExecQuerier, dialectName string, logger *slog.Logger) EvidenceRepository {
	return &evidenceRepo{newBase(q, dialectName, logger)}
}

// CleanChunkIDs drops blank ids and duplicates, keeping first-seen order.
func CleanChunkIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *evidenceRepo) InsertGrounded(ctx context.Context, ev entity.GroundedEvidence, chunkIDs []string) (*entity.GroundedEvidence, error) {
	ids := CleanChunkIDs(chunkIDs)
	if len(ids) == 0 {
		r.logger.Error("refusing evidence without citations", "run_id", ev.RunID, "fact_type", ev.FactType, "fact_key", ev.FactKey)
		return nil, common.NewAppError("UNCITED_EVIDENCE", ev.FactType+"/"+ev.FactKey, common.ErrUncitedEvidence)
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	var factJSON any
	if len(ev.FactJSON) > 0 {
		factJSON = string(ev.FactJSON)
	}
	ins := r.b.Insert(TableGroundedEvidence).
		Columns("evidence_id", "request_id", "run_id", "fact_type", "fact_key", "fact_value", "fact_json", "unknown", "notes", "created_at").
		Values(ev.ID, ev.RequestID, ev.RunID, ev.FactType, ev.FactKey, nullable(ev.FactValue), factJSON, ev.Unknown, nullable(ev.Notes), ev.CreatedAt)
	if _, err := r.exec(ctx, ins); err != nil {
		r.logger.Error("failed to insert evidence", "run_id", ev.RunID, "fact_type", ev.FactType, "fact_key", ev.FactKey, "error", err)
		return nil, dbErr("insert evidence", err)
	}

	cit := r.b.Insert(TableEvidenceCitations).Columns("evidence_id", "chunk_id")
	for _, id := range ids {
		cit.Values(ev.ID, id)
	}
	cit.OnConflict(entsql.ConflictColumns("evidence_id", "chunk_id"), entsql.DoNothing())
	if _, err := r.exec(ctx, cit); err != nil {
		r.logger.Error("failed to link citations", "evidence_id", ev.ID, "chunks", len(ids), "error", err)
		return nil, dbErr("insert citations", err)
	}
	r.logger.Debug("evidence written", "evidence_id", ev.ID, "fact_type", ev.FactType, "fact_key", ev.FactKey, "citations", len(ids))
	return &ev, nil
}

var evidenceColumns = []string{
	"evidence_id", "request_id", "run_id", "fact_type", "fact_key",
	"fact_value", "fact_json", "unknown", "notes", "created_at",
}

func (r *evidenceRepo) list(ctx context.Context, sel *entsql.Selector) ([]entity.GroundedEvidence, error) {
	var out []entity.GroundedEvidence
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			ev       entity.GroundedEvidence
			value    sql.NullString
			factJSON sql.NullString
			notes    sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.RequestID, &ev.RunID, &ev.FactType, &ev.FactKey,
			&value, &factJSON, &ev.Unknown, &notes, &ev.CreatedAt); err != nil {
			return err
		}
		ev.FactValue = strPtr(value)
		ev.Notes = strPtr(notes)
		if factJSON.Valid && factJSON.String != "" {
			ev.FactJSON = json.RawMessage(factJSON.String)
		}
		out = append(out, ev)
		return nil
	})
	return out, err
}

func (r *evidenceRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.GroundedEvidence, error) {
	sel := r.b.Select(evidenceColumns...).
		From(r.b.Table(TableGroundedEvidence)).
		Where(entsql.EQ("run_id", runID)).
		OrderBy("created_at", "fact_type", "fact_key")
	out, err := r.list(ctx, sel)
	if err != nil {
		r.logger.Error("failed to list evidence", "run_id", runID, "error", err)
		return nil, dbErr("list evidence", err)
	}
	return out, nil
}

func (r *evidenceRepo) CitationsByRun(ctx context.Context, runID uuid.UUID) (map[uuid.UUID][]string, error) {
	c := r.b.Table(TableEvidenceCitations)
	e := r.b.Table(TableGroundedEvidence)
	sel := r.b.Select(c.C("evidence_id"), c.C("chunk_id")).
		From(c).
		Join(e).On(c.C("evidence_id"), e.C("evidence_id")).
		Where(entsql.EQ(e.C("run_id"), runID)).
		OrderBy(c.C("evidence_id"), c.C("chunk_id"))
	out := make(map[uuid.UUID][]string)
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			evID    uuid.UUID
			chunkID string
		)
		if err := rows.Scan(&evID, &chunkID); err != nil {
			return err
		}
		out[evID] = append(out[evID], chunkID)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list citations", "run_id", runID, "error", err)
		return nil, dbErr("list citations", err)
	}
	return out, nil
}

func (r *evidenceRepo) Counts(ctx context.Context, runID uuid.UUID) (int, int, error) {
	total, err := r.count(ctx, r.b.Select(entsql.Count("*")).
		From(r.b.Table(TableGroundedEvidence)).
		Where(entsql.EQ("run_id", runID)))
	if err != nil {
		return 0, 0, dbErr("count evidence", err)
	}
	unknown, err := r.count(ctx, r.b.Select(entsql.Count("*")).
		From(r.b.Table(TableGroundedEvidence)).
		Where(entsql.And(entsql.EQ("run_id", runID), entsql.EQ("unknown", true))))
	if err != nil {
		return 0, 0, dbErr("count unknown evidence", err)
	}
	return total, unknown, nil
}

func (r *evidenceRepo) Uncited(ctx context.Context, runID uuid.UUID) ([]entity.GroundedEvidence, error) {
	e := r.b.Table(TableGroundedEvidence)
	c := r.b.Table(TableEvidenceCitations)
	cols := make([]string, len(evidenceColumns))
	for i, col := range evidenceColumns {
		cols[i] = e.C(col)
	}
	sel := r.b.Select(cols...).
		From(e).
		LeftJoin(c).On(e.C("evidence_id"), c.C("evidence_id")).
		Where(entsql.And(entsql.EQ(e.C("run_id"), runID), entsql.IsNull(c.C("evidence_id")))).
		OrderBy(e.C("fact_type"), e.C("fact_key"))
	out, err := r.list(ctx, sel)
	if err != nil {
		r.logger.Error("failed to list uncited evidence", "run_id", runID, "error", err)
		return nil, dbErr("list uncited evidence", err)
	}
	return out, nil
}
