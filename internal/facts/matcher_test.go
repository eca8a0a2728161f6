package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/course-grounding/internal/entity"
)

func strPtr(s string) *string { return &s }

func TestMatchCandidatesToTarget(t *testing.T) {
	cands := []entity.Candidate{
		{CourseCode: "MED 2150", Title: "General Pathology"},
		{CourseCode: "MED 2160", Title: "Clinical  Pathology"},
	}

	tests := []struct {
		name       string
		code       *string
		title      *string
		wantCode   string
		wantReason string
	}{
		{"irregular spacing code", strPtr("MED  2150"), nil, "MED 2150", ReasonCourseCode},
		{"code wins over title", strPtr("MED 2160"), strPtr("General Pathology"), "MED 2160", ReasonCourseCode},
		{"code is case sensitive", strPtr("med 2150"), nil, "", ReasonNoMatch},
		{"title fallback", strPtr("XYZ 9999"), strPtr("clinical pathology"), "MED 2160", ReasonTitle},
		{"no target", nil, nil, "", ReasonNoMatch},
		{"blank title", nil, strPtr("  "), "", ReasonNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := MatchCandidatesToTarget(cands, tt.code, tt.title)
			assert.Equal(t, tt.wantReason, reason)
			if tt.wantCode == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.CourseCode)
		})
	}
}

func TestMatchCandidatesToTarget_FirstInOrder(t *testing.T) {
	cands := []entity.Candidate{
		{CourseCode: "CS 2150", Title: "A", SourcePages: []int{1}},
		{CourseCode: "CS 2150", Title: "B", SourcePages: []int{3}},
	}
	got, _ := MatchCandidatesToTarget(cands, strPtr("CS 2150"), nil)
	require.NotNil(t, got)
	assert.Equal(t, "A", got.Title)
}
