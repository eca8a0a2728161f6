package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkPageText_Empty(t *testing.T) {
	assert.Empty(t, ChunkPageText("", 1, 900))
}

func TestChunkPageText_WhitespaceOnlyUsesFixedWindows(t *testing.T) {
	chunks := ChunkPageText(" \n\t ", 3, 2)
	require.Len(t, chunks, 2)
	assert.Equal(t, Chunk{PageNum: 3, SpanStart: 0, SpanEnd: 2, SnippetText: " \n", FullText: " \n"}, chunks[0])
	assert.Equal(t, Chunk{PageNum: 3, SpanStart: 2, SpanEnd: 4, SnippetText: "\t ", FullText: "\t "}, chunks[1])
}

func TestChunkPageText_FixedWindowsReconstructExactly(t *testing.T) {
	text := strings.Repeat("Pathology of organ systems. ", 120) + "Ünïcødé tail"
	chunks := ChunkPageText(text, 4, 100)
	require.Greater(t, len(chunks), 1)

	var sb strings.Builder
	prevEnd := 0
	for _, c := range chunks {
		assert.Equal(t, 4, c.PageNum)
		assert.Equal(t, prevEnd, c.SpanStart)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.FullText), 100)
		assert.Equal(t, c.SpanEnd-c.SpanStart, utf8.RuneCountInString(c.FullText))
		sb.WriteString(c.FullText)
		prevEnd = c.SpanEnd
	}
	assert.Equal(t, text, sb.String())
	assert.Equal(t, utf8.RuneCountInString(text), prevEnd)
}

func TestChunkPageText_SingleParagraphKeepsSurroundingWhitespace(t *testing.T) {
	text := "\n  CS 2150 Data Structures\nline two  \n"
	chunks := ChunkPageText(text, 1, 900)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].FullText)
	assert.Equal(t, 0, chunks[0].SpanStart)
	assert.Equal(t, utf8.RuneCountInString(text), chunks[0].SpanEnd)
}

func TestChunkPageText_PacksParagraphs(t *testing.T) {
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	c := strings.Repeat("c", 40)
	text := a + "\n\n" + b + "\n   \n" + c

	chunks := ChunkPageText(text, 2, 90)
	require.Len(t, chunks, 2)

	assert.Equal(t, a+"\n\n"+b, chunks[0].FullText)
	assert.Equal(t, 0, chunks[0].SpanStart)
	assert.Equal(t, 82, chunks[0].SpanEnd)

	assert.Equal(t, c, chunks[1].FullText)
	assert.Equal(t, 84, chunks[1].SpanStart)
	assert.Equal(t, 124, chunks[1].SpanEnd)
}

func TestChunkPageText_OversizedParagraphIsOwnChunk(t *testing.T) {
	big := strings.Repeat("x", 50)
	small := "tiny"
	chunks := ChunkPageText(big+"\n\n"+small, 1, 20)
	require.Len(t, chunks, 2)
	assert.Equal(t, big, chunks[0].FullText)
	assert.Equal(t, small, chunks[1].FullText)
	for _, c := range chunks {
		assert.NotEmpty(t, c.FullText)
	}
}

func TestChunkPageText_Deterministic(t *testing.T) {
	text := "Course Description\n\nIntro to things.\n\nPrerequisites\n\nNone."
	assert.Equal(t, ChunkPageText(text, 1, 30), ChunkPageText(text, 1, 30))
}

func TestChunkPageText_DefaultMaxChars(t *testing.T) {
	chunks := ChunkPageText(strings.Repeat("z", DefaultMaxChars+1), 1, 0)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].FullText, DefaultMaxChars)
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("é", 250)
	assert.Equal(t, SnippetChars, utf8.RuneCountInString(Snippet(long)))
	assert.Equal(t, "short", Snippet("short"))
}
