// Package audit checks that the latest extraction run of a request is fully grounded.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
	"github.com/joseph-ayodele/course-grounding/internal/repository"
)

// Report is the outcome of validating one run.
type Report struct {
	RequestID     uuid.UUID
	Run           *entity.ExtractionRun
	ChunkCount    int
	EvidenceCount int
	UnknownCount  int
	Uncited       []entity.GroundedEvidence
	Warnings      []string
}

// OK reports whether every evidence row of the run has at least one citation.
func (r Report) OK() bool {
	return r.Run != nil && len(r.Uncited) == 0
}

type Auditor struct {
	repos  *repository.Repos
	logger *slog.Logger
}

func NewAuditor(repos *repository.Repos, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{repos: repos, logger: logger}
}

// ValidateLatest audits the most recent run of requestID. It returns ErrNotFound when the
// request has never been extracted.
func (a *Auditor) ValidateLatest(ctx context.Context, requestID uuid.UUID) (Report, error) {
	rep := Report{RequestID: requestID}
	run, err := a.repos.Runs.LatestForRequest(ctx, requestID)
	if err != nil {
		return rep, err
	}
	rep.Run = run
	if run.Status != constants.RunStatusCompleted {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("latest run %s is %s, not completed", run.ID, run.Status))
	}

	if rep.ChunkCount, err = a.repos.Chunks.CountByRun(ctx, run.ID); err != nil {
		return rep, err
	}
	if rep.EvidenceCount, rep.UnknownCount, err = a.repos.Evidence.Counts(ctx, run.ID); err != nil {
		return rep, err
	}
	if rep.Uncited, err = a.repos.Evidence.Uncited(ctx, run.ID); err != nil {
		return rep, err
	}

	level := slog.LevelInfo
	if !rep.OK() {
		level = slog.LevelError
	}
	a.logger.Log(ctx, level, "audit.finished",
		"request_id", requestID,
		"run_id", run.ID,
		"status", run.Status,
		"chunks", rep.ChunkCount,
		"evidence", rep.EvidenceCount,
		"unknown", rep.UnknownCount,
		"uncited", len(rep.Uncited),
	)
	return rep, nil
}
