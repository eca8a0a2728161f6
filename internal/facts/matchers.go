package facts

import (
	"regexp"
	"strings"
)

// matcher tries to pull one field out of a document. ok=false means "try the next one".
type matcher func(d *document) (value string, ok bool)

// firstMatch runs matchers in priority order; the first success wins.
func firstMatch(d *document, chain []matcher) *string {
	for _, m := range chain {
		if v, ok := m(d); ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return &v
			}
		}
	}
	return nil
}

// document is the read-only view extractors share.
type document struct {
	pages []string
	all   string
}

func newDocument(pages []string) *document {
	return &document{pages: pages, all: strings.Join(pages, "\n")}
}

func (d *document) firstPage() string {
	if len(d.pages) == 0 {
		return ""
	}
	return d.pages[0]
}

// regexGroup matches re against the joined document text and returns capture group n.
func regexGroup(re *regexp.Regexp, n int) matcher {
	return func(d *document) (string, bool) {
		m := re.FindStringSubmatch(d.all)
		if m == nil {
			return "", false
		}
		return m[n], true
	}
}

var reSectionHeading = regexp.MustCompile(`\n[A-Z][A-Za-z /&]{3,}\n`)

// section finds heading (case-insensitive) and returns the text after it, cut at the next
// line that looks like a section heading.
func section(heading string) matcher {
	re := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(heading) + `\s*(.+)`)
	return func(d *document) (string, bool) {
		m := re.FindStringSubmatch(d.all)
		if m == nil {
			return "", false
		}
		return cutAtHeading(m[1]), true
	}
}

func cutAtHeading(s string) string {
	if loc := reSectionHeading.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}

// NormalizeSpace trims and collapses internal whitespace runs to one space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
