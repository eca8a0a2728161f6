package constants

import "strings"

// DocType is the coarse classification of an uploaded course document.
type DocType string

const (
	DocTypeSyllabus DocType = "syllabus"
	DocTypeCatalog  DocType = "catalog"
)

// ClassifyDocument decides the document type from its filename alone: anything whose
// name contains "syllabus" (any case) is a syllabus, everything else is a catalog.
func ClassifyDocument(filename string) DocType {
	if strings.Contains(strings.ToLower(filename), "syllabus") {
		return DocTypeSyllabus
	}
	return DocTypeCatalog
}

// Fact types written to grounded_evidence.fact_type.
const (
	FactTypeSyllabusCourse     = "syllabus_course"
	FactTypeCatalogDocument    = "catalog_document"
	FactTypeCatalogCourseMatch = "catalog_course_match"
)

// Fact keys.
const (
	FactKeyCourseCode     = "course_code"
	FactKeyTitle          = "title"
	FactKeyCreditsOrUnits = "credits_or_units"
	FactKeyDescription    = "description"
	FactKeyPrerequisites  = "prerequisites"
	FactKeyStructureType  = "structure_type"
)

// SyllabusFactKeys is the fixed order in which syllabus evidence rows are written.
var SyllabusFactKeys = []string{
	FactKeyCourseCode,
	FactKeyTitle,
	FactKeyCreditsOrUnits,
	FactKeyDescription,
	FactKeyPrerequisites,
}

// Catalog structure types.
const (
	StructureProgramLevel            = "program_level"
	StructureCourseCatalogStructured = "course_catalog_structured"
)

// MatchFactKey builds the fact_key of a catalog_course_match row.
func MatchFactKey(code string) string {
	if strings.TrimSpace(code) == "" {
		code = "unknown"
	}
	return "match::" + code
}
