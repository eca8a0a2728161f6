package facts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/course-grounding/constants"
)

const cs2150Syllabus = `CS 2150 – Program and Data Representation
Fall Semester, 3 Credit Hours

Course Description
An introduction to how programs and data are represented on a machine.
Topics include assembly, memory layout and data structures.

Prerequisites
CS 1110 or equivalent experience.

Grading
Exams 60 percent.`

func TestExtractSyllabusFacts_FullDocument(t *testing.T) {
	f := ExtractSyllabusFacts([]string{cs2150Syllabus})

	require.NotNil(t, f.CourseCode)
	assert.Equal(t, "CS 2150", *f.CourseCode)
	assert.Equal(t, "CS", *f.Subject)
	assert.Equal(t, "2150", *f.Number)

	require.NotNil(t, f.Title)
	assert.Equal(t, "Program and Data Representation", *f.Title)

	require.NotNil(t, f.CreditsOrUnits)
	assert.Equal(t, "3", *f.CreditsOrUnits)

	require.NotNil(t, f.Description)
	assert.True(t, strings.HasPrefix(*f.Description, "An introduction"))
	assert.NotContains(t, *f.Description, "Prerequisites")

	require.NotNil(t, f.Prerequisites)
	assert.Equal(t, "CS 1110 or equivalent experience.", *f.Prerequisites)

	assert.Equal(t, f.CourseCode, f.Value(constants.FactKeyCourseCode))
	assert.Nil(t, f.Value("unknown_key"))
}

func TestExtractSyllabusFacts_DottedCodeAndUnits(t *testing.T) {
	page := "10.213 - Chemical Engineering Thermodynamics\nUnits: 12\n\nThis subject covers the laws of thermodynamics."
	f := ExtractSyllabusFacts([]string{page})

	require.NotNil(t, f.CourseCode)
	assert.Equal(t, "10.213", *f.CourseCode)
	assert.Nil(t, f.Subject)
	require.NotNil(t, f.Title)
	assert.Equal(t, "Chemical Engineering Thermodynamics", *f.Title)
	require.NotNil(t, f.CreditsOrUnits)
	assert.Equal(t, "12", *f.CreditsOrUnits)

	// no description heading: second paragraph of page 1
	require.NotNil(t, f.Description)
	assert.Equal(t, "This subject covers the laws of thermodynamics.", *f.Description)
	assert.Nil(t, f.Prerequisites)
}

func TestExtractSyllabusFacts_TitleTooLong(t *testing.T) {
	f := ExtractSyllabusFacts([]string{strings.Repeat("word ", 40)})
	assert.Nil(t, f.Title)
}

func TestExtractSyllabusFacts_HeadingPriority(t *testing.T) {
	page := "Intro\n\nAbout This Course\nfirst text\n\nCourse Description\nsecond text"
	f := ExtractSyllabusFacts([]string{page})
	require.NotNil(t, f.Description)
	assert.Equal(t, "second text", *f.Description)
}

func TestExtractSyllabusFacts_Empty(t *testing.T) {
	assert.Equal(t, SyllabusFacts{}, ExtractSyllabusFacts(nil))
	assert.Equal(t, SyllabusFacts{}, ExtractSyllabusFacts([]string{"", ""}))
}
