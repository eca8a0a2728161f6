package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner serves canned pdftotext output per input path and simulates ocrmypdf.
type fakeRunner struct {
	text     map[string]string
	ocrErr   error
	ocrText  string
	ocrCalls int
}

func (f *fakeRunner) Run(_ context.Context, _ *slog.Logger, name string, args ...string) ([]byte, []byte, error) {
	switch name {
	case "pdftotext":
		path := args[len(args)-2]
		out, ok := f.text[path]
		if !ok {
			return nil, []byte("no such file"), errors.New("exit status 1")
		}
		return []byte(out), nil, nil
	case "ocrmypdf":
		f.ocrCalls++
		if f.ocrErr != nil {
			return nil, []byte("boom"), f.ocrErr
		}
		out := args[len(args)-1]
		if err := os.WriteFile(out, []byte("%PDF-fake"), 0o600); err != nil {
			return nil, nil, err
		}
		f.text[out] = f.ocrText
		return nil, nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

func noPageCount(string) (int, error) { return 0, errors.New("not a real pdf") }

func newTestExtractor(r Runner) *Extractor {
	return NewExtractor(Config{}, nil, WithRunner(r), WithPageCounter(noPageCount))
}

func TestExtractPagesText_PDF(t *testing.T) {
	r := &fakeRunner{text: map[string]string{
		"/docs/a.pdf": "Page  one\t text\n\f\fPage three\n\f",
	}}
	pages, err := newTestExtractor(r).ExtractPagesText(context.Background(), "/docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"Page one text", "", "Page three"}, pages)
}

func TestExtractPagesText_PageCountPads(t *testing.T) {
	r := &fakeRunner{text: map[string]string{"/docs/a.pdf": "only\f"}}
	e := NewExtractor(Config{}, nil, WithRunner(r), WithPageCounter(func(string) (int, error) { return 3, nil }))
	pages, err := e.ExtractPagesText(context.Background(), "/docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"only", "", ""}, pages)
}

func TestExtractPagesText_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syllabus.txt")
	require.NoError(t, os.WriteFile(path, []byte("CS 2150\r\n\r\n\r\n\r\nbody  text  \fsecond page\n"), 0o600))

	pages, err := newTestExtractor(&fakeRunner{}).ExtractPagesText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"CS 2150\n\nbody text", "second page"}, pages)
}

func TestExtractPagesText_Unsupported(t *testing.T) {
	_, err := newTestExtractor(&fakeRunner{}).ExtractPagesText(context.Background(), "/docs/a.docx")
	assert.Error(t, err)
}

func TestLooksImageOnly(t *testing.T) {
	long := strings.Repeat("x", 40)
	assert.True(t, LooksImageOnly(nil, 40))
	assert.True(t, LooksImageOnly([]string{"", "", "", "", long}, 40))
	assert.False(t, LooksImageOnly([]string{"", "", "", long, long}, 40))
	assert.True(t, LooksImageOnly([]string{strings.Repeat("é", 39)}, 40))
}

func TestEnsureSearchableText_TextPDFSkipsOCR(t *testing.T) {
	r := &fakeRunner{text: map[string]string{"/docs/a.pdf": strings.Repeat("word ", 20) + "\f"}}
	res, err := newTestExtractor(r).EnsureSearchableText(context.Background(), "/docs/a.pdf", t.TempDir(), true)
	require.NoError(t, err)
	assert.False(t, res.UsedOCR)
	assert.Empty(t, res.Warning)
	assert.Zero(t, r.ocrCalls)
}

func TestEnsureSearchableText_OCRSucceeds(t *testing.T) {
	outDir := t.TempDir()
	r := &fakeRunner{
		text:    map[string]string{"/docs/scan.pdf": "\f\f"},
		ocrText: "CS 2150 Program and Data Representation, recovered by OCR\f",
	}
	res, err := newTestExtractor(r).EnsureSearchableText(context.Background(), "/docs/scan.pdf", outDir, true)
	require.NoError(t, err)
	assert.True(t, res.UsedOCR)
	assert.Equal(t, filepath.Join(outDir, "ocr_scan.pdf"), res.OCRArtifactPath)
	assert.Equal(t, []string{"CS 2150 Program and Data Representation, recovered by OCR"}, res.Pages)
	assert.Empty(t, res.Warning)
}

func TestEnsureSearchableText_OCRUnavailableIsWarning(t *testing.T) {
	r := &fakeRunner{
		text:   map[string]string{"/docs/scan.pdf": "\f\f"},
		ocrErr: &exec.Error{Name: "ocrmypdf", Err: exec.ErrNotFound},
	}
	res, err := newTestExtractor(r).EnsureSearchableText(context.Background(), "/docs/scan.pdf", t.TempDir(), true)
	require.NoError(t, err)
	assert.False(t, res.UsedOCR)
	assert.Empty(t, res.OCRArtifactPath)
	assert.Equal(t, []string{"", ""}, res.Pages)
	assert.Contains(t, res.Warning, "OCR required but unavailable/failed")
	assert.Contains(t, res.Warning, ErrOCRUnavailable.Error())
}

func TestEnsureSearchableText_PreferOCROff(t *testing.T) {
	r := &fakeRunner{text: map[string]string{"/docs/scan.pdf": "\f"}}
	res, err := newTestExtractor(r).EnsureSearchableText(context.Background(), "/docs/scan.pdf", t.TempDir(), false)
	require.NoError(t, err)
	assert.False(t, res.UsedOCR)
	assert.Empty(t, res.Warning)
	assert.Zero(t, r.ocrCalls)
}

func TestOCRArtifactName(t *testing.T) {
	assert.Equal(t, "ocr_catalog 2024.pdf", OCRArtifactName("/x/y/catalog 2024.PDF"))
}

func TestExecRunner_LogsThroughExtractorLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	missing := filepath.Join(t.TempDir(), "pdftotext")
	e := NewExtractor(Config{Pdftotext: missing}, logger, WithPageCounter(noPageCount))

	_, err := e.ExtractPagesText(context.Background(), "/docs/a.pdf")
	require.Error(t, err)

	logged := buf.String()
	assert.Contains(t, logged, `"msg":"tool failed"`)
	assert.Contains(t, logged, `"tool":"pdftotext"`)
	assert.Contains(t, logged, `"path":"/docs/a.pdf"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...(truncated)", truncate("abcd", 2))
	// never splits a multi-byte rune
	assert.Equal(t, "a...(truncated)", truncate("aé", 2))
}
