// Package citation chooses which chunks ground an extracted fact.
package citation

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/course-grounding/constants"
)

const (
	// DefaultMaxPagesToScan is how many leading pages are searched for keywords.
	DefaultMaxPagesToScan = 3
	// maxLiteralValueChars caps fact values that are also used as search literals.
	maxLiteralValueChars = 40
)

// FactKeywords maps a fact key to the words whose presence on a page makes it citable.
var FactKeywords = map[string][]string{
	constants.FactKeyCourseCode:     {"course", "catalog", "code"},
	constants.FactKeyTitle:          {"title"},
	constants.FactKeyCreditsOrUnits: {"credit", "credits", "hours", "units"},
	constants.FactKeyDescription:    {"description", "objective", "about this course", "overview"},
	constants.FactKeyPrerequisites:  {"prerequisite", "prerequisites", "expected background", "enrollment policy"},
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// PickCitationsForFact returns the chunk ids of the first maxPagesToScan pages that mention
// one of the fact's keywords (or a short fact value), de-duplicated in page order. When no
// page matches it returns the first non-empty page's chunks, so the result is non-empty
// whenever any page has chunks.
func PickCitationsForFact(factKey string, factValue *string, pagesText []string, pageChunkIDs [][]string, maxPagesToScan int) []string {
	if len(pageChunkIDs) == 0 {
		return nil
	}
	if maxPagesToScan <= 0 {
		maxPagesToScan = DefaultMaxPagesToScan
	}

	var keywords []string
	for _, k := range FactKeywords[factKey] {
		keywords = append(keywords, normalize(k))
	}
	if factValue != nil && utf8.RuneCountInString(*factValue) <= maxLiteralValueChars {
		if v := normalize(*factValue); v != "" {
			keywords = append(keywords, v)
		}
	}

	var picked []string
	seen := make(map[string]struct{})
	n := min(len(pagesText), len(pageChunkIDs), maxPagesToScan)
	for i := 0; i < n; i++ {
		if !containsAny(normalize(pagesText[i]), keywords) {
			continue
		}
		for _, id := range pageChunkIDs[i] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			picked = append(picked, id)
		}
	}
	if len(picked) > 0 {
		return picked
	}
	return FirstNonEmpty(pageChunkIDs)
}

// FirstNonEmpty returns the first non-empty chunk id list, or nil.
func FirstNonEmpty(pageChunkIDs [][]string) []string {
	for _, ids := range pageChunkIDs {
		if len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// ForPages collects the chunk ids of the given 1-based page numbers, skipping pages that
// are out of range.
func ForPages(pages []int, pageChunkIDs [][]string) []string {
	var out []string
	for _, p := range pages {
		if p >= 1 && p <= len(pageChunkIDs) {
			out = append(out, pageChunkIDs[p-1]...)
		}
	}
	return out
}

func containsAny(hay string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(hay, n) {
			return true
		}
	}
	return false
}
