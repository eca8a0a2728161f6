package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/citation"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
	"github.com/joseph-ayodele/course-grounding/internal/facts"
	"github.com/joseph-ayodele/course-grounding/internal/payload"
	"github.com/joseph-ayodele/course-grounding/internal/repository"
)

// batch carries the per-run state of phase B. All writes go through repos, which are
// bound to the single phase-B transaction.
type batch struct {
	o         *Orchestrator
	repos     *repository.Repos
	requestID uuid.UUID
	runID     uuid.UUID

	// non-null course codes and titles from every syllabus so far, in order seen
	targetCodes  []string
	targetTitles []string

	// chunk ids of the first document that produced any; last-resort citations
	globalFallback []string

	manifestDocs []ManifestDocument
	warnings     []string
}

// pageIndex holds the page texts of a document with the chunk ids written for each page.
type pageIndex struct {
	pages    []string
	chunkIDs [][]string
}

func (b *batch) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.warnings = append(b.warnings, msg)
	b.o.logger.Warn("extraction.warning", "request_id", b.requestID, "run_id", b.runID, "warning", msg)
}

// process writes the chunks and evidence of one prepared document.
func (b *batch) process(ctx context.Context, p preparedDoc) error {
	md := ManifestDocument{
		DocID:      p.doc.ID.String(),
		Filename:   p.doc.Filename,
		StorageURI: p.doc.StorageURI,
		DocType:    string(p.docType),
		PageCount:  len(p.text.Pages),
		UsedOCR:    p.text.UsedOCR,
	}
	if p.text.OCRArtifactPath != "" {
		path := p.text.OCRArtifactPath
		md.OCROutputPDF = &path
	}
	if p.text.Warning != "" {
		b.warn("%s", p.text.Warning)
	}

	idx, written, err := b.writeChunks(ctx, p)
	if err != nil {
		return err
	}
	md.ChunksWritten = written

	docFallback := citation.FirstNonEmpty(idx.chunkIDs)
	if len(docFallback) == 0 {
		b.warn("No chunks extracted for doc_id=%s filename=%s. Document may be image-only or have unsupported text encoding.",
			p.doc.ID, p.doc.Filename)
	} else if len(b.globalFallback) == 0 {
		b.globalFallback = docFallback
	}

	switch {
	case len(docFallback) == 0 && len(b.globalFallback) == 0:
		b.warn("Skipped evidence for doc_id=%s filename=%s: no citable chunks in this run yet.", p.doc.ID, p.doc.Filename)
	case p.docType == constants.DocTypeSyllabus:
		md.EvidenceWritten, err = b.groundSyllabus(ctx, idx, docFallback)
	default:
		md.EvidenceWritten, err = b.groundCatalog(ctx, idx, docFallback)
	}
	if err != nil {
		return err
	}
	b.manifestDocs = append(b.manifestDocs, md)
	return nil
}

func (b *batch) writeChunks(ctx context.Context, p preparedDoc) (pageIndex, int, error) {
	idx := pageIndex{pages: p.text.Pages, chunkIDs: make([][]string, len(p.chunks))}
	written := 0
	for pi, pageChunks := range p.chunks {
		for _, c := range pageChunks {
			id, inserted, err := b.repos.Chunks.Upsert(ctx, entity.Chunk{
				DocID:       p.doc.ID,
				RunID:       b.runID,
				PageNum:     c.PageNum,
				SpanStart:   c.SpanStart,
				SpanEnd:     c.SpanEnd,
				SnippetText: c.SnippetText,
				FullText:    c.FullText,
			})
			if err != nil {
				return pageIndex{}, 0, err
			}
			idx.chunkIDs[pi] = append(idx.chunkIDs[pi], id)
			if inserted {
				written++
			}
		}
	}
	return idx, written, nil
}

// cite returns the first non-empty of primary, the document fallback and the run fallback.
func (b *batch) cite(primary, docFallback []string) []string {
	for _, ids := range [][]string{primary, docFallback, b.globalFallback} {
		if len(ids) > 0 {
			return ids
		}
	}
	return nil
}

func (b *batch) insert(ctx context.Context, ev entity.GroundedEvidence, chunkIDs []string) error {
	ev.RequestID = b.requestID
	ev.RunID = b.runID
	_, err := b.repos.Evidence.InsertGrounded(ctx, ev, chunkIDs)
	return err
}

func (b *batch) groundSyllabus(ctx context.Context, idx pageIndex, docFallback []string) (int, error) {
	sf := facts.ExtractSyllabusFacts(idx.pages)
	b.targetCodes = appendTarget(b.targetCodes, sf.CourseCode)
	b.targetTitles = appendTarget(b.targetTitles, sf.Title)

	n := 0
	for _, key := range constants.SyllabusFactKeys {
		value := sf.Value(key)
		ev := entity.GroundedEvidence{
			FactType:  constants.FactTypeSyllabusCourse,
			FactKey:   key,
			FactValue: value,
			Unknown:   value == nil,
		}
		if value == nil {
			note := "Missing " + key + " in syllabus"
			ev.Notes = &note
		}
		picked := citation.PickCitationsForFact(key, value, idx.pages, idx.chunkIDs, b.o.cfg.CitationMaxPages)
		if err := b.insert(ctx, ev, b.cite(picked, docFallback)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (b *batch) groundCatalog(ctx context.Context, idx pageIndex, docFallback []string) (int, error) {
	structure, candidates := facts.ExtractCatalogStructure(idx.pages)
	b.o.logger.Debug("catalog parsed", "run_id", b.runID, "structure_type", structure, "candidates", len(candidates))

	structureEv := entity.GroundedEvidence{
		FactType:  constants.FactTypeCatalogDocument,
		FactKey:   constants.FactKeyStructureType,
		FactValue: &structure,
	}
	if err := b.insert(ctx, structureEv, b.cite(nil, docFallback)); err != nil {
		return 0, err
	}

	targetCode, targetTitle := firstOf(b.targetCodes), firstOf(b.targetTitles)
	match, reason := facts.MatchCandidatesToTarget(candidates, targetCode, targetTitle)
	if match != nil {
		raw, err := payload.CandidateMatch.MarshalValid(match)
		if err != nil {
			return 1, err
		}
		code := match.CourseCode
		note := "Catalog matched via " + reason
		ev := entity.GroundedEvidence{
			FactType:  constants.FactTypeCatalogCourseMatch,
			FactKey:   constants.MatchFactKey(code),
			FactValue: &code,
			FactJSON:  raw,
			Notes:     &note,
		}
		if err := b.insert(ctx, ev, b.cite(citation.ForPages(match.SourcePages, idx.chunkIDs), docFallback)); err != nil {
			return 1, err
		}
		return 2, nil
	}

	raw, err := payload.NoMatch.MarshalValid(NoMatchPayload{
		TargetCourseCode: targetCode,
		TargetTitle:      targetTitle,
		Reason:           reason,
		CandidateCount:   len(candidates),
	})
	if err != nil {
		return 1, err
	}
	key := constants.MatchFactKey("")
	if targetCode != nil {
		key = constants.MatchFactKey(*targetCode)
	}
	note := "No matching course found in catalog document"
	ev := entity.GroundedEvidence{
		FactType: constants.FactTypeCatalogCourseMatch,
		FactKey:  key,
		FactJSON: raw,
		Unknown:  true,
		Notes:    &note,
	}
	if err := b.insert(ctx, ev, b.cite(nil, docFallback)); err != nil {
		return 1, err
	}
	return 2, nil
}

// appendTarget adds a non-blank v to set when it is not there yet.
func appendTarget(set []string, v *string) []string {
	if v == nil || strings.TrimSpace(*v) == "" || slices.Contains(set, *v) {
		return set
	}
	return append(set, *v)
}

func firstOf(set []string) *string {
	if len(set) == 0 {
		return nil
	}
	v := set[0]
	return &v
}

// NoMatchPayload is the fact_json of a catalog_course_match row when no candidate matched.
type NoMatchPayload struct {
	TargetCourseCode *string `json:"target_course_code"`
	TargetTitle      *string `json:"target_title"`
	Reason           string  `json:"reason"`
	CandidateCount   int     `json:"candidate_count"`
}
