package facts

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/entity"
)

// maxBodyLineChars bounds which body lines are folded into a description, so running
// headers and footers do not swallow a candidate.
const maxBodyLineChars = 350

var (
	// "MED 2150. General Pathology. 4 Credit Hours."
	reCatalogHeader = regexp.MustCompile(
		`^(?P<subj>[A-Z]{2,6})\s*(?P<num>\d{3,4}[A-Z]?)\.\s*(?P<title>.+?)\.\s*(?P<credits>\d+)\s*Credit\s*Hours?\.?\s*$`)
	// "MED 2150. General Pathology."
	reCatalogHeaderNoCredits = regexp.MustCompile(
		`^(?P<subj>[A-Z]{2,6})\s*(?P<num>\d{3,4}[A-Z]?)\.\s*(?P<title>.+?)\.?\s*$`)
	reExpectedBackground = regexp.MustCompile(`(?i)Expected(?: background)?:\s*(.+)$`)
)

// headerPatterns are tried per line in order.
var headerPatterns = []*regexp.Regexp{reCatalogHeader, reCatalogHeaderNoCredits}

// ExtractCatalogStructure classifies a catalog document and parses its course blocks.
func ExtractCatalogStructure(pages []string) (string, []entity.Candidate) {
	d := newDocument(pages)
	if !hasCourseStructure(d) {
		return constants.StructureProgramLevel, nil
	}

	var (
		candidates []entity.Candidate
		cur        *openCandidate
	)
	closeCurrent := func() {
		if cur != nil {
			candidates = append(candidates, cur.close())
			cur = nil
		}
	}

	for i, page := range pages {
		pageNum := i + 1
		for _, ln := range strings.Split(page, "\n") {
			ln = strings.TrimSpace(ln)
			if ln == "" {
				continue
			}
			if c, ok := parseHeader(ln); ok {
				closeCurrent()
				cur = &openCandidate{cand: c, pages: map[int]struct{}{pageNum: {}}}
				continue
			}
			if cur != nil {
				cur.addBodyLine(ln, pageNum)
			}
		}
	}
	closeCurrent()
	return constants.StructureCourseCatalogStructured, candidates
}

func hasCourseStructure(d *document) bool {
	if reCourseCode.MatchString(d.all) {
		return true
	}
	for _, p := range d.pages {
		for _, ln := range strings.Split(p, "\n") {
			if _, ok := parseHeader(strings.TrimSpace(ln)); ok {
				return true
			}
		}
	}
	return false
}

func parseHeader(line string) (entity.Candidate, bool) {
	for _, re := range headerPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		subj := m[re.SubexpIndex("subj")]
		num := m[re.SubexpIndex("num")]
		c := entity.Candidate{
			CourseCode: subj + " " + num,
			Subject:    subj,
			Number:     num,
			Title:      strings.TrimSpace(m[re.SubexpIndex("title")]),
		}
		if idx := re.SubexpIndex("credits"); idx > 0 {
			credits := strings.TrimSpace(m[idx])
			c.Credits = &credits
		}
		return c, true
	}
	return entity.Candidate{}, false
}

type openCandidate struct {
	cand  entity.Candidate
	desc  strings.Builder
	pages map[int]struct{}
}

func (o *openCandidate) addBodyLine(ln string, pageNum int) {
	o.pages[pageNum] = struct{}{}
	if m := reExpectedBackground.FindStringSubmatch(ln); m != nil && o.cand.Prerequisites == nil {
		prereq := strings.TrimSpace(m[1])
		o.cand.Prerequisites = &prereq
		return
	}
	if utf8.RuneCountInString(ln) <= maxBodyLineChars {
		if o.desc.Len() > 0 {
			o.desc.WriteByte(' ')
		}
		o.desc.WriteString(ln)
	}
}

func (o *openCandidate) close() entity.Candidate {
	c := o.cand
	c.SourcePages = make([]int, 0, len(o.pages))
	for p := range o.pages {
		c.SourcePages = append(c.SourcePages, p)
	}
	sort.Ints(c.SourcePages)

	desc := strings.TrimSpace(o.desc.String())
	c.Description = &desc
	c.Description = nilIfBlank(c.Description)
	c.Credits = nilIfBlank(c.Credits)
	c.Prerequisites = nilIfBlank(c.Prerequisites)
	return c
}

func nilIfBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
