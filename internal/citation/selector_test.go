package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/course-grounding/constants"
)

func ptr(s string) *string { return &s }

func TestPickCitationsForFact_KeywordPages(t *testing.T) {
	pages := []string{
		"Welcome to the class",
		"Grading:  3 CREDIT\thours",
		"Units of study",
		"credits again but past the scan window",
	}
	ids := [][]string{{"p1a"}, {"p2a", "p2b"}, {"p3a", "p2b"}, {"p4a"}}

	got := PickCitationsForFact(constants.FactKeyCreditsOrUnits, nil, pages, ids, 3)
	assert.Equal(t, []string{"p2a", "p2b", "p3a"}, got)
}

func TestPickCitationsForFact_ValueLiteral(t *testing.T) {
	pages := []string{"intro", "see CS   2150 for details"}
	ids := [][]string{{"a"}, {"b"}}

	got := PickCitationsForFact(constants.FactKeyTitle, ptr("cs 2150"), pages, ids, 3)
	assert.Equal(t, []string{"b"}, got)
}

func TestPickCitationsForFact_LongValueIgnored(t *testing.T) {
	long := "an extremely long description value that exceeds the literal cap"
	pages := []string{"nothing", long}
	ids := [][]string{{"a"}, {"b"}}

	got := PickCitationsForFact("unmapped_key", ptr(long), pages, ids, 3)
	assert.Equal(t, []string{"a"}, got)
}

func TestPickCitationsForFact_FallbackSkipsEmptyPages(t *testing.T) {
	pages := []string{"", "", "plain text"}
	ids := [][]string{nil, {}, {"c1", "c2"}}

	got := PickCitationsForFact(constants.FactKeyPrerequisites, nil, pages, ids, 3)
	assert.Equal(t, []string{"c1", "c2"}, got)
}

func TestPickCitationsForFact_NoChunks(t *testing.T) {
	assert.Empty(t, PickCitationsForFact(constants.FactKeyTitle, nil, nil, nil, 3))
	assert.Empty(t, PickCitationsForFact(constants.FactKeyTitle, nil, []string{""}, [][]string{nil}, 3))
}

func TestForPages(t *testing.T) {
	ids := [][]string{{"a"}, {"b", "c"}}
	assert.Equal(t, []string{"a", "b", "c"}, ForPages([]int{1, 2, 7, 0}, ids))
	assert.Empty(t, ForPages([]int{5}, ids))
}
