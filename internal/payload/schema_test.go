package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateMatch(t *testing.T) {
	ok := `{"course_code":"CS 2150","subject":"CS","number":"2150","title":"Data Structures",
		"credits":"3","description":null,"prerequisites":null,"source_pages":[1,2]}`
	require.NoError(t, CandidateMatch.Validate([]byte(ok)))

	missingPages := `{"course_code":"CS 2150","title":"Data Structures"}`
	assert.Error(t, CandidateMatch.Validate([]byte(missingPages)))

	zeroPage := `{"course_code":"CS 2150","title":"x","source_pages":[0]}`
	assert.Error(t, CandidateMatch.Validate([]byte(zeroPage)))
}

func TestNoMatch(t *testing.T) {
	b, err := NoMatch.MarshalValid(map[string]any{
		"target_course_code": nil,
		"target_title":       "Data Structures",
		"reason":             "no_match",
		"candidate_count":    0,
	})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"reason":"no_match"`)

	_, err = NoMatch.MarshalValid(map[string]any{"reason": "no_match"})
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	assert.Error(t, Manifest.Validate([]byte(`{"request_id":"r"}`)))
	assert.Error(t, Manifest.Validate([]byte(`not json`)))
}
