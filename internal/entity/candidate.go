package entity

// Candidate is a course block parsed from a catalog document. It is never persisted on its
// own; a matched candidate becomes the fact_json of a catalog_course_match row.
type Candidate struct {
	CourseCode    string  `json:"course_code"`
	Subject       string  `json:"subject"`
	Number        string  `json:"number"`
	Title         string  `json:"title"`
	Credits       *string `json:"credits"`
	Description   *string `json:"description"`
	Prerequisites *string `json:"prerequisites"`
	SourcePages   []int   `json:"source_pages"`
}
