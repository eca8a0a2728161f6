package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/course-grounding/internal/common"
)

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Requests  RequestRepository
	Documents DocumentRepository
	Runs      RunRepository
	Chunks    ChunkRepository
	Evidence  EvidenceRepository
}

// NewRepos binds all repositories to q, which is either a driver or an open transaction.
func NewRepos(q dialect.ExecQuerier, dialectName string, logger *slog.Logger) *Repos {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repos{
		Requests:  NewRequestRepository(q, dialectName, logger),
		Documents: NewDocumentRepository(q, dialectName, logger),
		Runs:      NewRunRepository(q, dialectName, logger),
		Chunks:    NewChunkRepository(q, dialectName, logger),
		Evidence:  NewEvidenceRepository(q, dialectName, logger),
	}
}

// Store is the unit of work over an ent SQL driver.
type Store struct {
	drv    *entsql.Driver
	repos  *Repos
	logger *slog.Logger
}

func NewStore(drv *entsql.Driver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{drv: drv, repos: NewRepos(drv, drv.Dialect(), logger), logger: logger}
}

// Repos returns repositories that run outside any transaction.
func (s *Store) Repos() *Repos { return s.repos }

// Driver exposes the underlying driver, for migrations.
func (s *Store) Driver() *entsql.Driver { return s.drv }

// InTx runs fn inside one transaction. It commits when fn returns nil and rolls back when
// fn returns an error or panics.
func (s *Store) InTx(ctx context.Context, fn func(*Repos) error) (err error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		s.logger.Error("begin transaction failed", "error", err)
		return fmt.Errorf("%w: begin transaction: %v", common.ErrDatabase, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewRepos(tx, s.drv.Dialect(), s.logger)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			s.logger.Error("rollback failed", "error", rerr, "cause", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", "error", err)
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	return nil
}

// base carries what every repository needs.
type base struct {
	q      dialect.ExecQuerier
	b      *entsql.DialectBuilder
	logger *slog.Logger
}

func newBase(q dialect.ExecQuerier, dialectName string, logger *slog.Logger) base {
	return base{q: q, b: entsql.Dialect(dialectName), logger: logger}
}

func (r base) exec(ctx context.Context, qb entsql.Querier) (sql.Result, error) {
	query, args := qb.Query()
	var res sql.Result
	if err := r.q.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r base) query(ctx context.Context, qb entsql.Querier, scan func(*entsql.Rows) error) error {
	query, args := qb.Query()
	var rows entsql.Rows
	if err := r.q.Query(ctx, query, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// count runs a single-value COUNT query.
func (r base) count(ctx context.Context, qb entsql.Querier) (int, error) {
	var n int
	err := r.query(ctx, qb, func(rows *entsql.Rows) error { return rows.Scan(&n) })
	return n, err
}

func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrRunNotRunning) || errors.Is(err, common.ErrUncitedEvidence) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", common.ErrDatabase, op, err)
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
