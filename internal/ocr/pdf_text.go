package ocr

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

const imageOnlyRatio = 0.8

var reHorizontalSpace = regexp.MustCompile(`[ \t]+`)

func (e *Extractor) pdfPages(ctx context.Context, path string) ([]string, error) {
	// pdftotext -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.logger.With("path", path), e.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 500))
	}

	pages := splitPages(string(out))

	if n, err := e.pageCount(path); err != nil {
		e.logger.Debug("page count unavailable, using form-feed count", "path", path, "pages", len(pages), "error", err)
	} else if n != len(pages) {
		pages = fitPages(pages, n)
	}

	for i := range pages {
		pages[i] = cleanPage(pages[i])
	}
	return pages, nil
}

func textPages(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text document: %w", err)
	}
	pages := splitPages(string(raw))
	for i := range pages {
		pages[i] = cleanPage(pages[i])
	}
	return pages, nil
}

// fitPages pads with empty pages or drops trailing extras so the result has n entries.
func fitPages(pages []string, n int) []string {
	if len(pages) >= n {
		return pages[:n]
	}
	return append(pages, make([]string, n-len(pages))...)
}

// splitPages cuts text on form feeds. pdftotext terminates every page with one, so a blank
// trailing segment is not a page.
func splitPages(s string) []string {
	pages := strings.Split(s, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

func cleanPage(s string) string {
	return strings.TrimSpace(reHorizontalSpace.ReplaceAllString(Normalize(s), " "))
}

// LooksImageOnly reports whether at least 80% of pages have fewer than minCharsPerPage
// characters. A document with no pages counts as image-only.
func LooksImageOnly(pages []string, minCharsPerPage int) bool {
	if len(pages) == 0 {
		return true
	}
	if minCharsPerPage <= 0 {
		minCharsPerPage = DefaultMinCharsPerPage
	}
	low := 0
	for _, p := range pages {
		if utf8.RuneCountInString(p) < minCharsPerPage {
			low++
		}
	}
	return float64(low)/float64(len(pages)) >= imageOnlyRatio
}
