package pipeline

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/chunking"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
	"github.com/joseph-ayodele/course-grounding/internal/extract"
)

// preparedDoc is a document with its text acquired and chunked, ready to be persisted.
type preparedDoc struct {
	doc     entity.Document
	docType constants.DocType
	text    extract.PagesResult
	chunks  [][]chunking.Chunk // index i holds the chunks of page i+1
}

// orderDocuments returns docs with syllabi first. Relative order within each kind is kept.
func orderDocuments(docs []entity.Document) []entity.Document {
	out := make([]entity.Document, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		return classify(out[i]) == constants.DocTypeSyllabus && classify(out[j]) != constants.DocTypeSyllabus
	})
	return out
}

func classify(d entity.Document) constants.DocType {
	return constants.ClassifyDocument(d.Filename)
}

// prepare acquires page text and chunks every document. It touches no storage, so documents
// are processed concurrently; results keep the input order.
func (o *Orchestrator) prepare(ctx context.Context, docs []entity.Document) ([]preparedDoc, error) {
	out := make([]preparedDoc, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.PrepareWorkers)
	for i, d := range docs {
		g.Go(func() error {
			res, err := o.source.Acquire(gctx, d.StorageURI, o.cfg.OCRDir, o.cfg.PreferOCR)
			if err != nil {
				return fmt.Errorf("acquire text for %s: %w", d.Filename, err)
			}
			p := preparedDoc{
				doc:     d,
				docType: classify(d),
				text:    res,
				chunks:  make([][]chunking.Chunk, len(res.Pages)),
			}
			for pi, page := range res.Pages {
				p.chunks[pi] = chunking.ChunkPageText(page, pi+1, o.cfg.ChunkMaxChars)
			}
			o.logger.Debug("document prepared", "doc_id", d.ID, "filename", d.Filename,
				"doc_type", p.docType, "pages", len(res.Pages), "used_ocr", res.UsedOCR)
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
