// Package chunking splits a page of extracted text into deterministic, citable spans.
package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChars is the chunk size used when callers pass a non-positive limit.
	DefaultMaxChars = 900
	// SnippetChars is the display prefix length kept on every chunk.
	SnippetChars = 200

	paragraphSeparator = "\n\n"
)

var reParagraphBreak = regexp.MustCompile(`\n\s*\n`)

// Chunk is one span of a page. Offsets count characters (runes), not bytes.
//
// In fixed-window mode SpanStart/SpanEnd are exact positions in the page text. In packed
// mode they are computed over the paragraphs rejoined with a two-character separator, so
// they are approximate with respect to the original page text.
type Chunk struct {
	PageNum     int
	SpanStart   int
	SpanEnd     int
	SnippetText string
	FullText    string
}

// ChunkPageText splits text into chunks of at most maxChars characters.
//
// A page with at most one paragraph is cut into fixed windows over the raw text, and
// concatenating those chunks reproduces the page exactly. Otherwise consecutive paragraphs
// are packed greedily; a paragraph longer than maxChars becomes a chunk of its own.
// Only the empty page yields no chunks; a whitespace-only page has no paragraphs and is
// windowed like any other. Text acquisition trims pages, so blank pages arrive as "".
func ChunkPageText(text string, pageNum, maxChars int) []Chunk {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	paras := splitParagraphs(text)
	if len(paras) <= 1 {
		return fixedWindows(text, pageNum, maxChars)
	}
	return packParagraphs(paras, pageNum, maxChars)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range reParagraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fixedWindows(text string, pageNum, maxChars int) []Chunk {
	r := []rune(text)
	out := make([]Chunk, 0, len(r)/maxChars+1)
	for i := 0; i < len(r); i += maxChars {
		j := min(i+maxChars, len(r))
		out = append(out, newChunk(pageNum, i, j, string(r[i:j])))
	}
	return out
}

func packParagraphs(paras []string, pageNum, maxChars int) []Chunk {
	var (
		out      []Chunk
		buf      strings.Builder
		bufLen   int
		bufStart int
		idx      int
	)
	flush := func() {
		if bufLen == 0 {
			return
		}
		out = append(out, newChunk(pageNum, bufStart, bufStart+bufLen, buf.String()))
		buf.Reset()
		bufLen = 0
	}

	for _, p := range paras {
		n := utf8.RuneCountInString(p)
		switch {
		case bufLen == 0:
			bufStart = idx
		case bufLen+n+len(paragraphSeparator) <= maxChars:
			buf.WriteString(paragraphSeparator)
			bufLen += len(paragraphSeparator)
		default:
			flush()
			bufStart = idx
		}
		buf.WriteString(p)
		bufLen += n
		idx += n + len(paragraphSeparator)
	}
	flush()
	return out
}

func newChunk(pageNum, start, end int, full string) Chunk {
	return Chunk{
		PageNum:     pageNum,
		SpanStart:   start,
		SpanEnd:     end,
		SnippetText: Snippet(full),
		FullText:    full,
	}
}

// Snippet returns the first SnippetChars characters of s.
func Snippet(s string) string {
	if utf8.RuneCountInString(s) <= SnippetChars {
		return s
	}
	return string([]rune(s)[:SnippetChars])
}
