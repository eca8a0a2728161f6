package facts

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/course-grounding/constants"
)

const (
	maxTitleChars        = 140
	maxFallbackDescChars = 1200
)

var (
	reCourseCode    = regexp.MustCompile(`\b([A-Z]{2,6})\s*([0-9]{3,4}[A-Z]?)\b`)
	reDottedCode    = regexp.MustCompile(`\b(\d{1,2}\.\d{3,4})\b`)
	reCreditHours   = regexp.MustCompile(`(?i)\b(\d+)\s*Credit Hour`)
	reUnits         = regexp.MustCompile(`(?i)\bUnits?\b\s*[:\-]?\s*(\d+)`)
	reParagraph     = regexp.MustCompile(`\n\s*\n`)
	reTitleCodeHead = regexp.MustCompile(`^[A-Z]{2,6}\s*\d{3,4}[A-Z]?\s*[–—-]\s*`)
	reTitleDotHead  = regexp.MustCompile(`^\d{1,2}\.\d{3,4}\s*[–—-]\s*`)
)

// DescriptionHeadings are tried in order; the first heading found in the text wins.
var DescriptionHeadings = []string{
	"Course Description",
	"About This Course",
	"Course Objective and Description",
}

// PrerequisiteHeadings are tried in order. The compound heading comes first so its text is
// not split by the shorter phrases it contains.
var PrerequisiteHeadings = []string{
	"Expected Background / Prerequisites",
	"Prerequisites",
	"Expected Background",
	"Enrollment Policy",
}

// SyllabusFacts are the fields read from a syllabus. Every field may be nil.
type SyllabusFacts struct {
	CourseCode     *string `json:"course_code"`
	Subject        *string `json:"subject"`
	Number         *string `json:"number"`
	Title          *string `json:"title"`
	CreditsOrUnits *string `json:"credits_or_units"`
	Description    *string `json:"description"`
	Prerequisites  *string `json:"prerequisites"`
}

// Value returns the extracted value for one of the five persisted fact keys.
func (f SyllabusFacts) Value(key string) *string {
	switch key {
	case constants.FactKeyCourseCode:
		return f.CourseCode
	case constants.FactKeyTitle:
		return f.Title
	case constants.FactKeyCreditsOrUnits:
		return f.CreditsOrUnits
	case constants.FactKeyDescription:
		return f.Description
	case constants.FactKeyPrerequisites:
		return f.Prerequisites
	}
	return nil
}

var (
	creditsChain = []matcher{
		regexGroup(reCreditHours, 1),
		regexGroup(reUnits, 1),
	}
	descriptionChain = append(headingChain(DescriptionHeadings), secondParagraphOfFirstPage)
	prereqChain      = headingChain(PrerequisiteHeadings)
)

func headingChain(headings []string) []matcher {
	out := make([]matcher, 0, len(headings))
	for _, h := range headings {
		out = append(out, section(h))
	}
	return out
}

func secondParagraphOfFirstPage(d *document) (string, bool) {
	var paras []string
	for _, p := range reParagraph.Split(strings.TrimSpace(d.firstPage()), -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) < 2 {
		return "", false
	}
	return truncateRunes(paras[1], maxFallbackDescChars), true
}

// ExtractSyllabusFacts reads course identity and description fields from a syllabus's pages.
// Missing fields stay nil; it never fails.
func ExtractSyllabusFacts(pages []string) SyllabusFacts {
	d := newDocument(pages)
	var f SyllabusFacts

	if m := reCourseCode.FindStringSubmatch(d.all); m != nil {
		code, subj, num := m[1]+" "+m[2], m[1], m[2]
		f.CourseCode, f.Subject, f.Number = &code, &subj, &num
	} else if m := reDottedCode.FindStringSubmatch(d.all); m != nil {
		code := m[1]
		f.CourseCode = &code
	}

	f.Title = extractTitle(d)
	f.CreditsOrUnits = firstMatch(d, creditsChain)
	f.Description = firstMatch(d, descriptionChain)
	f.Prerequisites = firstMatch(d, prereqChain)
	return f
}

func extractTitle(d *document) *string {
	for _, ln := range strings.Split(d.firstPage(), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		cleaned := strings.TrimSpace(reTitleCodeHead.ReplaceAllString(ln, ""))
		cleaned = strings.TrimSpace(reTitleDotHead.ReplaceAllString(cleaned, ""))
		if cleaned == "" || utf8.RuneCountInString(cleaned) > maxTitleChars {
			return nil
		}
		return &cleaned
	}
	return nil
}
