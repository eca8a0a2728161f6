package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/course-grounding/internal/repository"
)

const (
	evidenceSheet = "Evidence"
	chunksSheet   = "Chunks"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	repos  *repository.Repos
	logger *slog.Logger
}

func NewService(repos *repository.Repos, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repos: repos, logger: logger}
}

// ExportRunXLSX returns a workbook (as bytes) with one row per evidence item of the run and
// a second sheet listing the run's chunks.
func (s *Service) ExportRunXLSX(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	start := time.Now()

	run, err := s.repos.Runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	evidence, err := s.repos.Evidence.ListByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	citations, err := s.repos.Evidence.CitationsByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query citations: %w", err)
	}
	chunks, err := s.repos.Chunks.ListByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	pageOf := make(map[string]int, len(chunks))
	for _, c := range chunks {
		pageOf[c.ID] = c.PageNum
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", evidenceSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(chunksSheet); err != nil {
		return nil, err
	}

	writeRow(f, evidenceSheet, 1, "Fact Type", "Fact Key", "Fact Value", "Unknown", "Notes", "Cited Chunks", "Cited Pages")
	for i, ev := range evidence {
		ids := citations[ev.ID]
		writeRow(f, evidenceSheet, i+2,
			ev.FactType,
			ev.FactKey,
			truncate(deref(ev.FactValue), 500),
			ev.Unknown,
			deref(ev.Notes),
			strings.Join(ids, ", "),
			pagesCell(ids, pageOf),
		)
	}

	writeRow(f, chunksSheet, 1, "Chunk ID", "Doc ID", "Page", "Span Start", "Span End", "Snippet")
	for i, c := range chunks {
		writeRow(f, chunksSheet, i+2, c.ID, c.DocID.String(), c.PageNum, c.SpanStart, c.SpanEnd, c.SnippetText)
	}

	// Widen a few columns
	_ = f.SetColWidth(evidenceSheet, "A", "B", 24) // type, key
	_ = f.SetColWidth(evidenceSheet, "C", "C", 48) // value
	_ = f.SetColWidth(evidenceSheet, "E", "E", 40) // notes
	_ = f.SetColWidth(evidenceSheet, "F", "F", 70) // chunk ids
	_ = f.SetColWidth(chunksSheet, "A", "B", 40)
	_ = f.SetColWidth(chunksSheet, "F", "F", 80)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", runID.String(),
		"request_id", run.RequestID.String(),
		"rows", len(evidence),
		"chunks", len(chunks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// pagesCell renders the distinct page numbers of the cited chunks, ascending.
func pagesCell(ids []string, pageOf map[string]int) string {
	seen := map[int]struct{}{}
	var pages []int
	for _, id := range ids {
		p, ok := pageOf[id]
		if !ok {
			continue
		}
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

