package facts

import (
	"strings"

	"github.com/joseph-ayodele/course-grounding/internal/entity"
)

// Match reasons recorded in evidence notes.
const (
	ReasonCourseCode = "matched_by_course_code"
	ReasonTitle      = "matched_by_title"
	ReasonNoMatch    = "no_match"
)

// MatchCandidatesToTarget picks the catalog candidate describing the target course.
// Codes compare exactly after whitespace normalization; titles compare case-insensitively
// and only when a target title is given. Candidates are scanned in order.
func MatchCandidatesToTarget(candidates []entity.Candidate, targetCode, targetTitle *string) (*entity.Candidate, string) {
	if targetCode != nil {
		if code := NormalizeSpace(*targetCode); code != "" {
			for i := range candidates {
				if NormalizeSpace(candidates[i].CourseCode) == code {
					return &candidates[i], ReasonCourseCode
				}
			}
		}
	}

	if targetTitle != nil {
		if title := strings.ToLower(NormalizeSpace(*targetTitle)); title != "" {
			for i := range candidates {
				ct := strings.ToLower(NormalizeSpace(candidates[i].Title))
				if ct != "" && ct == title {
					return &candidates[i], ReasonTitle
				}
			}
		}
	}

	return nil, ReasonNoMatch
}
